package submission

import "fmt"

// Status is the persisted lifecycle state of a submission. The numeric codes
// are part of the external contract; by convention a code ending in 0 that is
// not a waiting state marks terminal success.
type Status int

const (
	StatusNotAccepted           Status = 15
	StatusWaitingValidation     Status = 20
	StatusValidationFailed      Status = 25
	StatusRepeated              Status = 26
	StatusWaitingUserUpload     Status = 30
	StatusUserUploadFailed      Status = 35
	StatusWaitingPostProcessing Status = 40
	StatusPostProcessingFailed  Status = 45
	StatusProcessed             Status = 60
)

func (s Status) String() string {
	switch s {
	case StatusNotAccepted:
		return "not_accepted"
	case StatusWaitingValidation:
		return "waiting_validation"
	case StatusValidationFailed:
		return "validation_failed"
	case StatusRepeated:
		return "repeated"
	case StatusWaitingUserUpload:
		return "waiting_user_upload"
	case StatusUserUploadFailed:
		return "user_upload_failed"
	case StatusWaitingPostProcessing:
		return "waiting_post_processing"
	case StatusPostProcessingFailed:
		return "post_processing_failed"
	case StatusProcessed:
		return "processed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// IsValid reports whether s is a known status code.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotAccepted, StatusWaitingValidation, StatusValidationFailed,
		StatusRepeated, StatusWaitingUserUpload, StatusUserUploadFailed,
		StatusWaitingPostProcessing, StatusPostProcessingFailed, StatusProcessed:
		return true
	}
	return false
}

// IsTerminal reports whether the pipeline will take no further action on its
// own. Terminal failure states can still be retried by an explicit external
// re-trigger of the same stage.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusNotAccepted, StatusValidationFailed, StatusRepeated,
		StatusUserUploadFailed, StatusPostProcessingFailed, StatusProcessed:
		return true
	}
	return false
}

// IsTerminalSuccess reports whether the submission completed the pipeline.
func (s Status) IsTerminalSuccess() bool {
	return s == StatusProcessed
}

// canPreprocess checks whether the preprocess stage may run. Re-running
// after a validation failure is the supported retry path.
func canPreprocess(s Status) (bool, error) {
	switch s {
	case StatusWaitingValidation, StatusValidationFailed:
		return true, nil
	default:
		return false, fmt.Errorf("%w: cannot preprocess submission in status %s", ErrIllegalTransition, s)
	}
}

// canCheckUpload checks whether the upload-confirmation probe may run.
func canCheckUpload(s Status) (bool, error) {
	if s == StatusWaitingUserUpload {
		return true, nil
	}
	return false, fmt.Errorf("%w: cannot confirm uploads for submission in status %s", ErrIllegalTransition, s)
}

// canPostprocess checks whether the postprocess stage may run. Re-running
// after a post-processing failure is the supported retry path.
func canPostprocess(s Status) (bool, error) {
	switch s {
	case StatusWaitingPostProcessing, StatusPostProcessingFailed:
		return true, nil
	default:
		return false, fmt.Errorf("%w: cannot postprocess submission in status %s", ErrIllegalTransition, s)
	}
}
