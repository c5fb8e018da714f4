package logfields

import "go.uber.org/zap"

func State(val string) zap.Field {
	return zap.String("queue.state", val)
}

func Verdict(val string) zap.Field {
	return zap.String("queue.verdict", val)
}

func Priority(val int) zap.Field {
	return zap.Int("queue.priority", val)
}

func Reviewer(val string) zap.Field {
	return zap.String("queue.reviewer", val)
}

func Builder(val string) zap.Field {
	return zap.String("ci.builder", val)
}

func BuildOutcome(val string) zap.Field {
	return zap.String("ci.outcome", val)
}
