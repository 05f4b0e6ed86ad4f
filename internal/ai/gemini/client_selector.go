package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// GeminiClientSelector rotates requests round-robin across API keys and
// fails over to the next key when one errors.
type GeminiClientSelector struct {
	clients      []GeminiClient
	currentIndex int
	mutex        sync.Mutex
}

func NewGeminiClientSelector(clients []GeminiClient) *GeminiClientSelector {
	return &GeminiClientSelector{clients: clients}
}

func (s *GeminiClientSelector) GetNextClient() (*GeminiClient, int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.clients) == 0 {
		return nil, -1
	}

	client := &s.clients[s.currentIndex]
	index := s.currentIndex
	s.currentIndex = (s.currentIndex + 1) % len(s.clients)

	return client, index
}

func (s *GeminiClientSelector) GetClientCount() int {
	return len(s.clients)
}

// TryAllClients runs operation against each client in turn until one succeeds.
func (s *GeminiClientSelector) TryAllClients(operation func(*GeminiClient, int) error) error {
	clientCount := s.GetClientCount()
	if clientCount == 0 {
		return fmt.Errorf("no Gemini clients available")
	}

	var lastErr error
	for attempt := 0; attempt < clientCount; attempt++ {
		client, clientIdx := s.GetNextClient()

		err := operation(client, clientIdx)
		if err == nil {
			slog.Debug("Gemini request succeeded", "client_index", clientIdx, "attempt", attempt+1)
			return nil
		}

		lastErr = err
		slog.Warn("Gemini request failed, trying next client",
			"client_index", clientIdx,
			"attempt", attempt+1,
			"error", err)
	}

	slog.Error("all Gemini clients exhausted", "total_attempts", clientCount)
	return fmt.Errorf("all %d Gemini clients failed, last error: %w", clientCount, lastErr)
}

// IdentifyPest asks the model to name the pest in image.
func (s *GeminiClientSelector) IdentifyPest(ctx context.Context, image []byte, cropType string) (map[string]any, error) {
	prompt := BuildPestIdentificationPrompt(cropType)

	var result map[string]any
	err := s.TryAllClients(func(client *GeminiClient, _ int) error {
		resp, err := client.SendAIWithImage(ctx, prompt, image)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *GeminiClientSelector) Close() {
	for i := range s.clients {
		if err := s.clients[i].Close(); err != nil {
			slog.Warn("failed to close Gemini client", "index", i, "error", err)
		}
	}
}
