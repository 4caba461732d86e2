package structs

// ReturnCode classifies the outcome of a submission. Values are stable;
// they are consumed by whatever transport fronts this service.
type ReturnCode int

const (
	// CodeSuccess means an already-complete result was reused
	CodeSuccess ReturnCode = 1
	// CodeNotFound means a referenced prior task is missing or evicted
	CodeNotFound ReturnCode = 3
	// CodeValidationError means malformed input or a disallowed state transition
	CodeValidationError ReturnCode = 4
	// CodeFailure means an unclassified system failure
	CodeFailure ReturnCode = 9
	// CodeExisted means a duplicate of an active submission
	CodeExisted ReturnCode = 21
	// CodeInQueue means the task was accepted and awaits execution
	CodeInQueue ReturnCode = 22
	// CodeQueueRejected means no account had spare capacity
	CodeQueueRejected ReturnCode = 23
	// CodeBannedPrompt means content screening rejected the text
	CodeBannedPrompt ReturnCode = 24
)

// SubmitResult is the outcome of one submission operation.
type SubmitResult struct {
	Code        ReturnCode `json:"code"`
	Description string     `json:"description"`

	// TaskID is set when a task was accepted or reused
	TaskID string `json:"result,omitempty"`

	// Properties carries diagnostic context, eg. the translated prompt or
	// the banned term that aborted the submission.
	Properties map[string]interface{} `json:"properties,omitempty"`
}

func SubmitOK(code ReturnCode, description, taskID string) *SubmitResult {
	return &SubmitResult{Code: code, Description: description, TaskID: taskID}
}

func SubmitFail(code ReturnCode, description string) *SubmitResult {
	return &SubmitResult{Code: code, Description: description}
}

// WithProperty attaches a diagnostic key/value and returns the result for chaining.
func (r *SubmitResult) WithProperty(name string, value interface{}) *SubmitResult {
	if r.Properties == nil {
		r.Properties = map[string]interface{}{}
	}
	r.Properties[name] = value
	return r
}

// BaseSubmit are fields shared by every submission request.
type BaseSubmit struct {
	// State is an opaque caller value echoed back in notifications
	State string `json:"state,omitempty"`

	// NotifyHook overrides the process-wide callback url for this task
	NotifyHook string `json:"notify_hook,omitempty"`

	// AccountID pins the submission to one account. Optional.
	AccountID string `json:"account_id,omitempty"`
}

// ImagineRequest asks for a fresh generation from a prompt.
type ImagineRequest struct {
	BaseSubmit `json:",inline"`

	Prompt string `json:"prompt"`
}

// ChangeRequest derives a new task from a previous successful one.
type ChangeRequest struct {
	BaseSubmit `json:",inline"`

	// TaskID is the source task
	TaskID string `json:"task_id"`

	// Action is one of UPSCALE, VARIATION, REROLL
	Action Action `json:"action"`

	// Index selects the image within the source grid (1-4); unused for reroll
	Index int `json:"index,omitempty"`
}

// SimpleChangeRequest is the compact content form of a change, eg. "1320098173412546 U2".
type SimpleChangeRequest struct {
	BaseSubmit `json:",inline"`

	Content string `json:"content"`
}

// DescribeRequest asks for prompt text describing one uploaded image.
type DescribeRequest struct {
	BaseSubmit `json:",inline"`

	// Base64 is the image as a data URL
	Base64 string `json:"base64"`
}

// BlendRequest asks for a merge of 2 to 5 uploaded images.
type BlendRequest struct {
	BaseSubmit `json:",inline"`

	// Base64Array are the images as data URLs
	Base64Array []string `json:"base64_array"`

	Dimensions BlendDimensions `json:"dimensions"`
}

// ShortenRequest asks for analysis of a prompt.
type ShortenRequest struct {
	BaseSubmit `json:",inline"`

	Prompt string `json:"prompt"`
}
