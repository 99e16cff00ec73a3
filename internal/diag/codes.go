package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Port contract rules
	PortInfo               Code = 1000
	PortComparisonAccessor Code = 1001
	PortVoidResult         Code = 1002
	PortMultiInputSlot     Code = 1003

	// IO
	IOInfo          Code = 4000
	IOLoadFileError Code = 4001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:            "Unknown error",
		PortInfo:               "Port contract information",
		PortComparisonAccessor: "Legacy comparison accessor",
		PortVoidResult:         "Result port on an operation without a value",
		PortMultiInputSlot:     "Fixed input slot on a multi-input node",
		IOInfo:                 "I/O information",
		IOLoadFileError:        "I/O load file error",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("VS-PORT-%03d", ic-1000)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("VS-IO-%03d", ic-4000)
	}
	return "VS-0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// ParseCode maps a stable identifier back to its Code.
func ParseCode(id string) (Code, bool) {
	for c := range codeDescription {
		if c != UnknownCode && c.ID() == id {
			return c, true
		}
	}
	return UnknownCode, false
}
