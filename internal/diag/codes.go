package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Ошибки загрузки модулей (fatal, обрывают сборку)
	BundleUnreadableSource    Code = 1001
	BundleSyntaxError         Code = 1002
	BundleTransformError      Code = 1003
	BundleUnresolvedSpecifier Code = 1004
	BundleCyclicGraphOverflow Code = 1005
	BundleCorruptGraph        Code = 1006
	BundleWriteFailed         Code = 1007

	// Граф модулей (warnings / info)
	ProjImportCycle        Code = 5004
	ProjDuplicateSpecifier Code = 5012
	ProjTransformWarning   Code = 5013

	// Наблюдаемость
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:               "Unknown error",
	BundleUnreadableSource:    "Unreadable source file",
	BundleSyntaxError:         "Syntax error",
	BundleTransformError:      "Module transform failed",
	BundleUnresolvedSpecifier: "Unresolved import specifier",
	BundleCyclicGraphOverflow: "Cyclic import graph overflow",
	BundleCorruptGraph:        "Corrupt module graph",
	BundleWriteFailed:         "Failed to write bundle",
	ProjImportCycle:           "Import cycle detected",
	ProjDuplicateSpecifier:    "Specifier imported more than once",
	ProjTransformWarning:      "Transformer warning",
	ObsTimings:                "Timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("BND%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
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
