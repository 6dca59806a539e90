package memory_test

import (
	"testing"

	"github.com/aretw0/bngenvs/pkg/adapters/memory"
	"github.com/aretw0/bngenvs/pkg/ports"
)

func TestMemoryIndex_Contract(t *testing.T) {
	ports.RunIndexContract(t, memory.NewIndex())
}
