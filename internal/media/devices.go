package media

import (
	"fmt"
	"strconv"

	"gocv.io/x/gocv"
)

// maxProbeDevices bounds device enumeration. Desktop machines rarely
// expose more capture devices than this.
const maxProbeDevices = 8

// Device identifies one physical capture device.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EnumerateDevices probes capture device indices and returns the
// devices that open successfully. Indices that fail to open are
// skipped.
func EnumerateDevices() []Device {
	var devices []Device

	for i := 0; i < maxProbeDevices; i++ {
		capture, err := gocv.OpenVideoCapture(i)
		if err != nil {
			continue
		}
		capture.Close()

		devices = append(devices, Device{
			ID:   strconv.Itoa(i),
			Name: fmt.Sprintf("Camera %d", i),
		})
	}

	return devices
}
