package contract

import (
	"errors"
	"sync"
	"testing"

	apperrors "github.com/kbukum/apicontract/errors"
)

func TestRegistry_DefineOnce(t *testing.T) {
	reg := NewRegistry()

	if reg.AlreadyDefined(MethodGet, "/users") {
		t.Fatal("expected empty registry")
	}
	if err := reg.Define(MethodGet, "/users"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reg.AlreadyDefined(MethodGet, "/users") {
		t.Error("expected GET /users to be defined")
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 contract, got %d", reg.Len())
	}
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	for _, m := range Methods {
		t.Run(m.String(), func(t *testing.T) {
			reg := NewRegistry()
			if err := reg.Define(m, "/items/:id"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			err := reg.Define(m, "/items/:id")
			if err == nil {
				t.Fatal("expected duplicate error")
			}
			if !errors.Is(err, ErrDuplicateContract) {
				t.Errorf("expected ErrDuplicateContract, got %v", err)
			}
			var dup *DuplicateContractError
			if !errors.As(err, &dup) {
				t.Fatalf("expected *DuplicateContractError, got %T", err)
			}
			if dup.Method != m || dup.Path != "/items/:id" {
				t.Errorf("unexpected duplicate details: %+v", dup)
			}
			if reg.Len() != 1 {
				t.Errorf("expected 1 contract after rejection, got %d", reg.Len())
			}
		})
	}
}

func TestRegistry_IdentityIsMethodAndPath(t *testing.T) {
	reg := NewRegistry()
	for _, m := range Methods {
		if err := reg.Define(m, "/things"); err != nil {
			t.Fatalf("%s: unexpected error: %v", m, err)
		}
	}
	if err := reg.Define(MethodGet, "/things/"); err != nil {
		t.Errorf("trailing slash is a different path, got %v", err)
	}
	if reg.Len() != len(Methods)+1 {
		t.Errorf("expected %d contracts, got %d", len(Methods)+1, reg.Len())
	}
}

func TestRegistry_FreshRegistryAcceptsAgain(t *testing.T) {
	first := NewRegistry()
	if err := first.Define(MethodPost, "/orders"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := NewRegistry()
	if err := second.Define(MethodPost, "/orders"); err != nil {
		t.Errorf("expected a new registry to accept the pair, got %v", err)
	}
	if err := first.Define(MethodPost, "/orders"); err == nil {
		t.Error("expected the first registry to still reject the pair")
	}
}

func TestRegistry_AssertNoDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.AssertNoDuplicate(MethodPut, "/a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Len() != 0 {
		t.Error("assert must not insert")
	}
	_ = reg.Define(MethodPut, "/a")
	if err := reg.AssertNoDuplicate(MethodPut, "/a"); !errors.Is(err, ErrDuplicateContract) {
		t.Errorf("expected ErrDuplicateContract, got %v", err)
	}
}

func TestRegistry_DuplicateUnwrapsToAppError(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Define(MethodDelete, "/x")
	err := reg.Define(MethodDelete, "/x")

	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError in chain, got %v", err)
	}
	if appErr.Code != apperrors.ErrCodeAlreadyExists {
		t.Errorf("expected %s, got %s", apperrors.ErrCodeAlreadyExists, appErr.Code)
	}
	if appErr.Details["path"] != "/x" {
		t.Errorf("expected path detail, got %v", appErr.Details)
	}
}

func TestRegistry_Keys(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Define(MethodPost, "/b")
	_ = reg.Define(MethodGet, "/a")

	keys := reg.Keys()
	if len(keys) != 2 || keys[0] != "get/a" || keys[1] != "post/b" {
		t.Errorf("unexpected keys: %v", keys)
	}
}

func TestRegistry_ConcurrentDefine(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reg.Define(MethodGet, "/race"); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if accepted != 1 {
		t.Errorf("expected exactly one accepted declaration, got %d", accepted)
	}
}

func TestRegistry_ZeroValue(t *testing.T) {
	var reg Registry
	if reg.AlreadyDefined(MethodGet, "/x") || reg.Len() != 0 {
		t.Fatal("expected an empty registry")
	}
	if _, err := NewAPI(&reg).Get("/x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.Define(MethodGet, "/x"); !errors.Is(err, ErrDuplicateContract) {
		t.Errorf("expected duplicate, got %v", err)
	}
}
