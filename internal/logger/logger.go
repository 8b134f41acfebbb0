package logger

import "go.uber.org/zap"

// New builds the application logger: human-readable in development,
// JSON in production.
func New(production bool) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if production {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
