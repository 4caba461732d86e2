package structs

// Correlation holds the fields used to bind inbound channel events to the
// task that caused them, and to chain follow-up actions off the result.
type Correlation struct {
	// AccountID is the id of the account this task was admitted to.
	// Immutable once set.
	AccountID string `json:"account_id"`

	// Nonce is the opaque token embedded in the outbound command. The first
	// inbound event carrying it binds that event's message to this task.
	Nonce string `json:"nonce"`

	// MessageID is the channel message this task is bound to, set when the
	// first matching event arrives.
	MessageID string `json:"message_id,omitempty"`

	// MessageHash is the content hash of the bound message's attachment.
	MessageHash string `json:"message_hash,omitempty"`

	// Flags are the bound message's flags, echoed into follow-up commands.
	Flags int64 `json:"flags,omitempty"`

	// FinalPrompt is the fully resolved prompt text as the external side
	// echoed it back.
	FinalPrompt string `json:"final_prompt,omitempty"`
}

// ChangeSpec is set on Upscale, Variation and Reroll tasks.
type ChangeSpec struct {
	// SourceTaskID is the task this one derives from.
	SourceTaskID string `json:"source_task_id"`

	// ReferencedMessageID is the source task's bound message id. It is sent
	// in the outbound command payload; event binding still uses the nonce.
	ReferencedMessageID string `json:"referenced_message_id"`

	// Index selects the image within the source grid (1-4). Zero for reroll.
	Index int `json:"index,omitempty"`
}

// DescribeSpec is set on Describe tasks.
type DescribeSpec struct {
	// Image is the uploaded image as a data URL.
	Image string `json:"-"`

	// FileName is the name the image was uploaded under.
	FileName string `json:"file_name"`
}

// BlendSpec is set on Blend tasks.
type BlendSpec struct {
	// Images are the uploaded images as data URLs, 2 to 5 of them.
	Images []string `json:"-"`

	// Dimensions is the declared aspect ratio category.
	Dimensions BlendDimensions `json:"dimensions"`
}

// Task represents a single unit of work submitted to one account.
type Task struct {
	// ID is a unique, time-ordered identifier for this task
	ID string `json:"id"`

	// Action is the kind of work this task performs
	Action Action `json:"action"`

	// Status is the current status of this task
	Status Status `json:"status"`

	// Prompt is the prompt text as submitted
	Prompt string `json:"prompt,omitempty"`

	// PromptEn is the prompt after preprocessing (translation, url/flag reassembly)
	PromptEn string `json:"prompt_en,omitempty"`

	// Description is a human readable summary of the underlying command
	Description string `json:"description,omitempty"`

	// State is an opaque caller-supplied value echoed back in notifications
	State string `json:"state,omitempty"`

	// SubmitTime is when this task was created, unix time in milliseconds
	SubmitTime int64 `json:"submit_time"`

	// StartTime is when the command was sent, unix time in milliseconds
	StartTime int64 `json:"start_time,omitempty"`

	// FinishTime is when a terminal status was reached, unix time in milliseconds
	FinishTime int64 `json:"finish_time,omitempty"`

	// ImageURL is the resulting image, set on success
	ImageURL string `json:"image_url,omitempty"`

	// Progress is a free-form progress indicator, eg. "50%"
	Progress string `json:"progress,omitempty"`

	// FailReason is set when the task reaches FAILURE
	FailReason string `json:"fail_reason,omitempty"`

	// NotifyHook is the callback url notified on task changes, resolved at
	// submission from the request or the process-wide default
	NotifyHook string `json:"notify_hook,omitempty"`

	// Correlation binds inbound events to this task
	Correlation Correlation `json:"correlation"`

	// Exactly one of these is set, matching Action.
	Change   *ChangeSpec   `json:"change,omitempty"`
	Describe *DescribeSpec `json:"describe,omitempty"`
	Blend    *BlendSpec    `json:"blend,omitempty"`
}
