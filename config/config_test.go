package config

import (
	"flag"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBindFlagsDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := BindFlags(fs)
	require.NoError(t, fs.Parse(nil))

	require.Equal(t, 2055, cfg.Port)
	require.Equal(t, "netflow", cfg.Target)
	require.Equal(t, "5,9,10", cfg.Versions)
}

func TestAcceptedVersionsParsesSubset(t *testing.T) {
	cfg := &Config{Versions: "9, 10"}
	versions, err := cfg.AcceptedVersions()
	require.NoError(t, err)
	require.Equal(t, map[uint16]bool{9: true, 10: true}, versions)
}

func TestAcceptedVersionsRejectsGarbage(t *testing.T) {
	cfg := &Config{Versions: "9,banana"}
	_, err := cfg.AcceptedVersions()
	require.Error(t, err)
}

func TestAcceptedVersionsRejectsEmpty(t *testing.T) {
	cfg := &Config{Versions: ""}
	_, err := cfg.AcceptedVersions()
	require.Error(t, err)
}

func TestLoadOverlaysYAML(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := BindFlags(fs)
	require.NoError(t, fs.Parse(nil))

	yamlDoc := `
port: 9995
sink: kafka
kafka_topic: flows
`
	require.NoError(t, Load(cfg, strings.NewReader(yamlDoc)))
	require.Equal(t, 9995, cfg.Port)
	require.Equal(t, "kafka", cfg.Sink)
	require.Equal(t, "flows", cfg.KafkaTopic)
	require.Equal(t, "netflow", cfg.Target) // untouched by the YAML overlay
}
