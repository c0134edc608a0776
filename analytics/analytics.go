package analytics

type DataCollectorConfig struct {
	FileName      string
	CollectorType DataCollectorType
}

type DataCollectorType string

const LOG_FILE_DATA_COLLECTOR DataCollectorType = "LOG_FILE_DATA_COLLECTOR"

// DeliveryDataCollector receives the outcome of every outbound send so
// operators can audit what each bot delivered and to whom.
type DeliveryDataCollector interface {
	RecordSendSuccess(botId string, nodeId string, chatId int64, kind string)
	RecordSendFailure(botId string, nodeId string, chatId int64, kind string, reason string)
}

var deliveryCollector DeliveryDataCollector

func InitDataCollector(config DataCollectorConfig) error {
	switch config.CollectorType {
	case LOG_FILE_DATA_COLLECTOR:
		c, err := NewLogFileDataCollector(config.FileName)
		if err != nil {
			return err
		}
		deliveryCollector = c
	}
	return nil
}

func RecordSendSuccess(botId string, nodeId string, chatId int64, kind string) {
	if deliveryCollector == nil {
		return
	}
	deliveryCollector.RecordSendSuccess(botId, nodeId, chatId, kind)
}

func RecordSendFailure(botId string, nodeId string, chatId int64, kind string, reason string) {
	if deliveryCollector == nil {
		return
	}
	deliveryCollector.RecordSendFailure(botId, nodeId, chatId, kind, reason)
}
