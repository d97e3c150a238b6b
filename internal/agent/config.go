package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/otakit/ota-agent/internal/agent/core"
	"github.com/otakit/ota-agent/internal/agent/hal"
	"github.com/otakit/ota-agent/internal/agent/hub"
	"github.com/otakit/ota-agent/internal/agent/oracle"
	"github.com/otakit/ota-agent/internal/agent/ota"
	"github.com/otakit/ota-agent/internal/agent/server"
	"github.com/otakit/ota-agent/internal/agent/slot"
	"github.com/otakit/ota-agent/internal/pkg/mqtt/paths"
	"github.com/otakit/ota-agent/pkg/log"
	"github.com/otakit/ota-agent/pkg/mqtt"
	mqtttopic "github.com/otakit/ota-agent/pkg/mqtt/topic"
	"github.com/otakit/ota-agent/pkg/options"
)

// Config holds everything needed to assemble an Agent.
type Config struct {
	OracleOptions *options.OracleOptions
	S3Options     *options.S3Options
	UpdateOptions *options.UpdateOptions
	DeviceOptions *options.DeviceOptions
	HttpOptions   *options.HttpOptions
	MqttOptions   *options.MqttOptions
}

// NewAgent wires the oracle, the slot storage, the HAL and the reporting
// side into an Agent.
func (cfg *Config) NewAgent() (*Agent, error) {
	deviceID := hal.DiscoverDeviceID(cfg.DeviceOptions.ID)
	if deviceID == "" {
		return nil, fmt.Errorf("unable to determine the device id: set --device.id, %s or %s", hal.DeviceIDEnv, hal.DeviceIDFile)
	}

	storage, err := slot.NewFileStorage(cfg.DeviceOptions.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open slot storage: %w", err)
	}

	// Bootloader step: a slot committed before the last restart becomes active now.
	switched, err := storage.Boot()
	if err != nil {
		return nil, fmt.Errorf("failed to promote pending slot: %w", err)
	}
	if switched {
		log.Info("Promoted the slot committed before restart", "dir", cfg.DeviceOptions.StorageDir)
	}

	httpClient, err := oracle.NewHTTPClient(cfg.OracleOptions)
	if err != nil {
		return nil, err
	}
	locator, err := oracle.NewLocator(cfg.OracleOptions, cfg.S3Options)
	if err != nil {
		return nil, fmt.Errorf("failed to init oracle locator: %w", err)
	}

	a := New(deviceID, oracle.NewVersion(cfg.UpdateOptions.CurrentVersion), cfg.UpdateOptions)
	a.hal = hal.New(deviceID, cfg.DeviceOptions.SimulateReboot, storage)
	a.updater = ota.NewManager(
		oracle.NewClient(httpClient, locator),
		storage,
		ota.WithHTTPClient(httpClient),
		ota.WithChunkSize(cfg.UpdateOptions.ChunkSize),
		ota.WithChunkDelay(cfg.UpdateOptions.ChunkDelay),
		ota.WithProgress(a.onProgress),
	)

	if cfg.MqttOptions.Enabled() {
		h, err := cfg.newHub(deviceID)
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
		if err := h.Register(core.EventCheck, func(context.Context, []byte) error {
			a.Trigger()
			return nil
		}); err != nil {
			return nil, err
		}
		a.sender = h
		a.services = append(a.services, ServiceFunc(h.Run))
	} else {
		log.Info("No MQTT broker configured, status reporting disabled")
	}

	if cfg.HttpOptions.Enabled() {
		a.services = append(a.services, server.NewServer(cfg.HttpOptions, a))
	}

	return a, nil
}

func (cfg *Config) newHub(deviceID string) (*hub.Hub, error) {
	topicBuilder := mqtttopic.NewBuilder(cfg.MqttOptions.TopicRoot)

	mqttConfig := cfg.MqttOptions.ToClientConfig()
	if mqttConfig.ClientID == "" {
		mqttConfig.ClientID = fmt.Sprintf("ota-agent-%s", deviceID)
	}

	// The broker announces the agent offline when the session drops.
	offlinePayload, _ := json.Marshal(core.Status{
		DeviceID: deviceID,
		State:    core.StateOffline,
		Reason:   "unexpected_disconnect",
	})
	mqttConfig.WillTopic = topicBuilder.Build(paths.Status, deviceID)
	mqttConfig.WillPayload = offlinePayload
	mqttConfig.WillQoS = 1
	mqttConfig.WillRetain = true

	mqttClient, err := mqtt.NewClient(mqttConfig)
	if err != nil {
		return nil, err
	}

	return hub.New(deviceID, mqttClient, topicBuilder), nil
}
