package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/arrayops/remotearray/internal/controllers/reporting"
	"github.com/arrayops/remotearray/internal/controllers/restserver"
	"github.com/arrayops/remotearray/internal/controllers/spaceweather"
	"github.com/arrayops/remotearray/pkg/config"
	"go.uber.org/zap"
)

// ControllerManager interface for the controller manager
type ControllerManager interface {
	StartControllers() error
}

// Controller is an interface that provides standard methods for various
// controller backends
type Controller interface {
	StartController() error
}

// NewControllerManager creates a new controller manager
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, logger *zap.SugaredLogger) (ControllerManager, error) {
	controllerConfigs, err := configProvider.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("error loading controller configuration: %v", err)
	}

	cm := &controllerManager{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		logger:         logger,
		controllers:    make([]Controller, 0),
	}

	for _, cc := range controllerConfigs {
		controller, err := cm.createController(cc)
		if err != nil {
			return nil, fmt.Errorf("error creating controller: %v", err)
		}
		cm.controllers = append(cm.controllers, controller)
	}

	return cm, nil
}

type controllerManager struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
	controllers    []Controller
}

func (c *controllerManager) StartControllers() error {
	c.logger.Info("Starting controller manager...")

	for _, controller := range c.controllers {
		err := controller.StartController()
		if err != nil {
			return fmt.Errorf("error starting controller: %v", err)
		}
	}

	c.logger.Infof("Started %d controllers successfully", len(c.controllers))
	return nil
}

// createController creates a controller based on the controller configuration
func (cm *controllerManager) createController(cc config.ControllerData) (Controller, error) {
	switch cc.Type {
	case "restserver", "rest":
		var rc config.RESTServerData
		if cc.RESTServer != nil {
			rc = *cc.RESTServer
		}
		return restserver.NewController(cm.ctx, cm.wg, cm.configProvider, rc, cm.logger)
	case "reporting":
		var rc config.ReportingData
		if cc.Reporting != nil {
			rc = *cc.Reporting
		}
		return reporting.NewController(cm.ctx, cm.wg, cm.configProvider, rc, cm.logger)
	case "spaceweather":
		var sw config.SpaceWeatherData
		if cc.SpaceWeather != nil {
			sw = *cc.SpaceWeather
		}
		return spaceweather.NewController(cm.ctx, cm.wg, cm.configProvider, sw, cm.logger)
	default:
		return nil, fmt.Errorf("unknown controller type: %s", cc.Type)
	}
}
