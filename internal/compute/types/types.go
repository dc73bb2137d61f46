// Package types defines the compute provider abstraction the orchestrator
// provisions agent VMs through.
package types

import (
	"context"
	"errors"
)

// ErrInstanceNotFound is returned by DeleteInstance when the provider no
// longer knows the instance. Callers treat it as "already gone".
var ErrInstanceNotFound = errors.New("compute: instance not found")

// Provider creates and deletes agent instances. Calls act on behalf of the
// build's owner, so every call carries the owner's current bearer token.
type Provider interface {
	CreateInstance(ctx context.Context, authToken string, spec *InstanceSpec) (*Instance, error)
	DeleteInstance(ctx context.Context, authToken string, instanceID string) error
}

// InjectedFile is a file placed into the instance before it boots.
type InjectedFile struct {
	Path     string
	Contents []byte
	Owner    string
	Mode     string
}

// InstanceSpec describes the agent instance to create.
type InstanceSpec struct {
	Name     string
	ImageID  string
	FlavorID string
	Project  string
	Networks []string
	Files    []InjectedFile
}

// Instance is the provider's view of a created instance.
type Instance struct {
	ID string
}
