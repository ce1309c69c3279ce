package upload

import "fmt"

// Reason tells why upload was rejected
type Reason int

const (
	// ReasonTransferFailed means file was chosen, but it didn't reach server intact
	ReasonTransferFailed Reason = iota + 1
	// ReasonTooLarge means file exceeds MaxSize
	ReasonTooLarge
	// ReasonContentType means sniffed content is not jpeg
	ReasonContentType
	// ReasonExtension means file name has no jpg/jpeg extension
	ReasonExtension
)

func (r Reason) String() string {
	switch r {
	case ReasonTransferFailed:
		return "upload failed"
	case ReasonTooLarge:
		return "file is too large"
	case ReasonContentType:
		return "file is not a JPEG image"
	case ReasonExtension:
		return "file must have .jpg or .jpeg extension"
	default:
		return "upload rejected"
	}
}

// Rejection is raised when uploaded file doesn't pass validation
type Rejection struct {
	Reason Reason
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return r.Reason.String()
	}
	return fmt.Sprintf("%s - %s", r.Reason, r.Detail)
}

func reject(reason Reason, detail string) error {
	return &Rejection{Reason: reason, Detail: detail}
}
