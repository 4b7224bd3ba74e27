package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ CredentialDefinitionService = (*Service)(nil)
	_ SchemaRegistry              = (*SchemaRegistryClient)(nil)
	_ TopologyCache               = (*MemoryTopologyCache)(nil)
	_ MetricsRecorder             = NopMetricsRecorder{}
	_ RawConfigLoader             = YAMLFileConfigLoader{}
	_ ConfigProvider              = (*CfgxConfigProvider)(nil)
	_ OptionsResolver             = GoOptionsResolver{}
	_ error                       = (*RemoteError)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
