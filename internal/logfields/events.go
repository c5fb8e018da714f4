package logfields

import "go.uber.org/zap"

func Event(val string) zap.Field {
	return zap.String("event", val)
}

func ExitCode(val int) zap.Field {
	return zap.Int("exit_code", val)
}
