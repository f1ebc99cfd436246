package deferq

import (
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// DIParams holds dependencies needed to create a Deferq instance via DI.
type DIParams struct {
	dig.In

	Logger *zap.Logger
	Config *Config `optional:"true"`
}

// ProvideRuntime creates a Deferq instance for dependency injection.
// Use this when integrating Deferq into an app that uses uber-go/dig.
//
// Example:
//
//	container := dig.New()
//	container.Provide(deferq.ProvideRuntime)
//	container.Invoke(func(dq *deferq.Deferq) {
//	    dq.Register("send-receipt", sendReceipt)
//	})
func ProvideRuntime(params DIParams) (*Deferq, error) {
	cfg := DefaultConfig()
	if params.Config != nil {
		c := *params.Config
		cfg = &c
	}

	// Use the provided logger
	cfg.Logger = params.Logger

	return New(cfg)
}

// RegisterWithContainer registers Deferq with a dig container.
//
// Example:
//
//	container := dig.New()
//	if err := deferq.RegisterWithContainer(container); err != nil {
//	    log.Fatal(err)
//	}
func RegisterWithContainer(container *dig.Container) error {
	return container.Provide(ProvideRuntime)
}
