// internal/report/report.go
package report

import (
	"errors"
	"fmt"
)

// Component identifies the reporting subsystem.
type Component uint8

const (
	ComponentUnknown Component = 0
	ComponentCan     Component = 1
	ComponentDevice  Component = 2
	ComponentUpdate  Component = 3
	ComponentStorage Component = 4
	ComponentOta     Component = 5
	ComponentRelais  Component = 6
)

type Code uint8

const (
	CodeUnknown     Code = 0
	CodeInvalidData Code = 1
)

type Severity uint8

const (
	SeverityUnknown          Severity = 0
	SeverityWarning          Severity = 1
	SeverityRecoverableError Severity = 2
	SeverityRepeatingError   Severity = 3
	SeverityError            Severity = 4
	SeverityCriticalError    Severity = 5
)

var componentNames = [...]string{"unknown", "can", "device", "update", "storage", "ota", "relais"}

func (c Component) String() string {
	if int(c) < len(componentNames) {
		return componentNames[c]
	}
	return fmt.Sprintf("component(%d)", uint8(c))
}

// Len is the wire size of a report.
const Len = 8

var ErrBadLength = errors.New("report: payload must be 8 bytes")

// Report is one DeviceError payload.
//
//	[0] component  [1] code  [2] severity  [3] local code  [4..8) details
type Report struct {
	Component Component
	Code      Code
	Severity  Severity
	LocalCode uint8
	Details   [4]byte
}

func (r Report) Bytes() [Len]byte {
	return [Len]byte{
		byte(r.Component),
		byte(r.Code),
		byte(r.Severity),
		r.LocalCode,
		r.Details[0], r.Details[1], r.Details[2], r.Details[3],
	}
}

// Parse decodes a report. Unknown enum values are kept as is.
func Parse(b []byte) (Report, error) {
	if len(b) != Len {
		return Report{}, fmt.Errorf("%w: got %d", ErrBadLength, len(b))
	}
	r := Report{
		Component: Component(b[0]),
		Code:      Code(b[1]),
		Severity:  Severity(b[2]),
		LocalCode: b[3],
	}
	copy(r.Details[:], b[4:8])
	return r, nil
}
