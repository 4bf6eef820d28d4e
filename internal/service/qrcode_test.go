package service_test

import (
	"bytes"
	"testing"

	"quickbar/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultQRGenerator(t *testing.T) {
	generator := service.DefaultQRGenerator{BaseURL: "https://quickbar.example/"}

	assert.Equal(t, "https://quickbar.example/demo/start", generator.URL("demo"))

	png, err := generator.Generate("demo")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
