package backend

import "testing"

func TestDockerConfig_Defaults(t *testing.T) {
	if DefaultContainerName != "lmdesk-ollama" {
		t.Errorf("unexpected default container name: %s", DefaultContainerName)
	}
	if DefaultImage != "ollama/ollama:latest" {
		t.Errorf("unexpected default image: %s", DefaultImage)
	}
	if DefaultPort != "11434" {
		t.Errorf("unexpected default port: %s", DefaultPort)
	}
}

func TestDockerManager_URL(t *testing.T) {
	m := &DockerManager{hostPort: "11500"}
	if got := m.URL(); got != "http://localhost:11500" {
		t.Errorf("URL() = %s", got)
	}
}
