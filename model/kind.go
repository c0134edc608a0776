package model

const KIND_COMMAND string = "command"
const KIND_CONDITION string = "condition"
const KIND_SUBSCRIPTION string = "subscription"
const KIND_TIMER string = "timer"
const KIND_MESSAGE string = "message"
const KIND_IMAGE string = "image"
const KIND_VIDEO string = "video"
const KIND_AUDIO string = "audio"
const KIND_DOCUMENT string = "document"
const KIND_DELETE_MESSAGE string = "delete_message"
const KIND_EDIT_MESSAGE string = "edit_message"
const KIND_RECORD string = "record"
const KIND_EXCEL_FILE string = "excel_file"
const KIND_TEXT_FILE string = "text_file"
const KIND_EXCEL_COLUMN string = "excel_column"
const KIND_FILE_SEARCH string = "file_search"
const KIND_STATUS_SET string = "status_set"
const KIND_STATUS_GET string = "status_get"
const KIND_CHAT string = "chat"
const KIND_BROADCAST string = "broadcast"
const KIND_TASK string = "task"
const KIND_BUTTON_ROW string = "button_row"
const KIND_MESSAGE_BUTTON string = "message_button"
const KIND_REPLY_BUTTON string = "reply_button"
const KIND_REPLY_CLEAR string = "reply_clear"
const KIND_WEBHOOK string = "webhook"

// Content kinds terminate a traversal path and become delayed send targets.
func IsContentKind(kind string) bool {
	switch kind {
	case KIND_MESSAGE, KIND_IMAGE, KIND_VIDEO, KIND_AUDIO, KIND_DOCUMENT,
		KIND_DELETE_MESSAGE, KIND_EDIT_MESSAGE:
		return true
	}
	return false
}

func IsMediaKind(kind string) bool {
	switch kind {
	case KIND_IMAGE, KIND_VIDEO, KIND_AUDIO, KIND_DOCUMENT:
		return true
	}
	return false
}
