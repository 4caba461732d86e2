package common

const (
	// API_SUBMIT_IMAGINE accepts new generation tasks
	API_SUBMIT_IMAGINE = "/mj/submit/imagine"

	// API_SUBMIT_CHANGE accepts upscale / variation / reroll tasks
	API_SUBMIT_CHANGE = "/mj/submit/change"

	// API_SUBMIT_SIMPLE_CHANGE accepts changes in the compact content form
	API_SUBMIT_SIMPLE_CHANGE = "/mj/submit/simple-change"

	// API_SUBMIT_DESCRIBE accepts image-to-text tasks
	API_SUBMIT_DESCRIBE = "/mj/submit/describe"

	// API_SUBMIT_BLEND accepts image merge tasks
	API_SUBMIT_BLEND = "/mj/submit/blend"

	// API_SUBMIT_SHORTEN accepts prompt analysis tasks
	API_SUBMIT_SHORTEN = "/mj/submit/shorten"

	// API_TASK_FETCH returns one task by id
	API_TASK_FETCH = "/mj/task/{id}/fetch"

	// API_TASK_LIST returns tasks matching a query
	API_TASK_LIST = "/mj/task/list"

	// API_TASK_LIST_BY_IDS returns the tasks with the posted ids
	API_TASK_LIST_BY_IDS = "/mj/task/list-by-ids"

	// API_ACCOUNT_LIST returns all configured accounts
	API_ACCOUNT_LIST = "/mj/account/list"

	// API_ACCOUNT_FETCH returns one account by id
	API_ACCOUNT_FETCH = "/mj/account/{id}/fetch"

	// API_ACCOUNT_UPDATE toggles an account
	API_ACCOUNT_UPDATE = "/mj/account/{id}"

	// HEADER_API_SECRET carries the shared secret when one is configured
	HEADER_API_SECRET = "mj-api-secret"
)
