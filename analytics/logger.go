package analytics

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogFileDataCollector struct {
	fileName string
	logger   *zap.Logger
}

func NewLogFileDataCollector(fileName string) (*LogFileDataCollector, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = "" // to hide stacktrace info
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	writer := zapcore.AddSync(logFile)
	defaultLogLevel := zapcore.InfoLevel
	core := zapcore.NewTee(zapcore.NewCore(fileEncoder, writer, defaultLogLevel))
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return &LogFileDataCollector{
		fileName: fileName,
		logger:   logger,
	}, nil
}

func (lc *LogFileDataCollector) RecordSendSuccess(botId string, nodeId string, chatId int64, kind string) {
	lc.logger.Info("delivered", zap.String("bot", botId), zap.String("node", nodeId), zap.Int64("chat", chatId), zap.String("kind", kind))
}

func (lc *LogFileDataCollector) RecordSendFailure(botId string, nodeId string, chatId int64, kind string, reason string) {
	lc.logger.Info("failed", zap.String("bot", botId), zap.String("node", nodeId), zap.Int64("chat", chatId), zap.String("kind", kind), zap.String("reason", reason))
}
