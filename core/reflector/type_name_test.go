package reflector

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type personState struct {
	Name string
}

const personStateName = "github.com/codewandler/symbio-go/core/reflector.personState"

func TestTypeInfoOf(t *testing.T) {
	ti := TypeInfoOf(personState{Name: "Tom"})
	require.Equal(t, personStateName, ti.Name)
	require.Equal(t, "personState", ti.Type.Name())
}

func TestTypeInfo_PointerUnwrapped(t *testing.T) {
	require.Equal(t, personStateName, TypeNameOf(&personState{}))
	require.Equal(t, personStateName, TypeNameFor[*personState]())

	var pp **personState
	require.Equal(t, personStateName, TypeNameOf(pp))
}

func TestTypeInfo_Builtins(t *testing.T) {
	require.Equal(t, "string", TypeNameOf("x"))
	require.Equal(t, "[]uint8", TypeNameFor[[]byte]())
	require.Equal(t, "map[string]interface {}", TypeNameOf(map[string]any{}))
}

func TestTypeInfo_Nil(t *testing.T) {
	require.Equal(t, TypeInfo{}, TypeInfoOf(nil))
}

func TestTypeInfo_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, personStateName, TypeNameFor[personState]())
		}()
	}
	wg.Wait()
}
