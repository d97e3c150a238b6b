package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/otakit/ota-agent/internal/agent"
	"github.com/otakit/ota-agent/pkg/app"
	"github.com/otakit/ota-agent/pkg/log"
	"github.com/otakit/ota-agent/pkg/options"
)

type AgentOptions struct {
	OracleOptions *options.OracleOptions `json:"oracle" mapstructure:"oracle"`
	S3Options     *options.S3Options     `json:"s3" mapstructure:"s3"`
	UpdateOptions *options.UpdateOptions `json:"update" mapstructure:"update"`
	DeviceOptions *options.DeviceOptions `json:"device" mapstructure:"device"`
	HttpOptions   *options.HttpOptions   `json:"http" mapstructure:"http"`
	MqttOptions   *options.MqttOptions   `json:"mqtt" mapstructure:"mqtt"`
	Log           *log.Options           `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*AgentOptions)(nil)

func NewAgentOptions() *AgentOptions {
	o := &AgentOptions{
		OracleOptions: options.NewOracleOptions(),
		S3Options:     options.NewS3Options(),
		UpdateOptions: options.NewUpdateOptions(),
		DeviceOptions: options.NewDeviceOptions(),
		HttpOptions:   options.NewHttpOptions(),
		MqttOptions:   options.NewMqttOptions(),
		Log:           log.NewOptions(),
	}

	return o
}

func (o *AgentOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.OracleOptions.AddFlags(fss.FlagSet("oracle"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.UpdateOptions.AddFlags(fss.FlagSet("update"))
	o.DeviceOptions.AddFlags(fss.FlagSet("device"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *AgentOptions) Complete() error {
	return nil
}

func (o *AgentOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.OracleOptions.Validate()...)
	if o.OracleOptions.Source == options.SourceS3 {
		errs = append(errs, o.S3Options.Validate()...)
	}
	errs = append(errs, o.UpdateOptions.Validate()...)
	errs = append(errs, o.DeviceOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *AgentOptions) Config() (*agent.Config, error) {
	return &agent.Config{
		OracleOptions: o.OracleOptions,
		S3Options:     o.S3Options,
		UpdateOptions: o.UpdateOptions,
		DeviceOptions: o.DeviceOptions,
		HttpOptions:   o.HttpOptions,
		MqttOptions:   o.MqttOptions,
	}, nil
}
