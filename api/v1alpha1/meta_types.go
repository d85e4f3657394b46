// Package v1alpha1 contains the declarative resource types accepted by ironvirt.
//
// The shapes follow Kubernetes API conventions (TypeMeta inline, metadata,
// spec) without depending on k8s.io/apimachinery, so a document reads like
// any other manifest but is decoded with plain gopkg.in/yaml.v3.
package v1alpha1

// TypeMeta describes an individual object's type and API version.
//
// +k8s:deepcopy-gen=true
type TypeMeta struct {
	// Kind discriminates the resource. Only "Machine" is defined.
	Kind string `json:"kind" yaml:"kind"`

	// APIVersion defines the versioned schema of this representation of an object.
	// +optional
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
}

// ObjectMeta is metadata that all resources must have.
//
// +k8s:deepcopy-gen=true
type ObjectMeta struct {
	// Name must be unique on the host. It names the instance directory
	// and the libvirt domain.
	Name string `json:"name" yaml:"name"`

	// Labels are key/value pairs attached to objects.
	// +optional
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`

	// Annotations are unstructured key/value pairs that may be set by external tools.
	// +optional
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// DeepCopy creates a deep copy of TypeMeta.
func (in *TypeMeta) DeepCopy() *TypeMeta {
	if in == nil {
		return nil
	}
	out := new(TypeMeta)
	*out = *in
	return out
}

// DeepCopy creates a deep copy of ObjectMeta.
func (in *ObjectMeta) DeepCopy() *ObjectMeta {
	if in == nil {
		return nil
	}
	out := new(ObjectMeta)
	*out = *in

	if in.Labels != nil {
		out.Labels = make(map[string]string, len(in.Labels))
		for k, v := range in.Labels {
			out.Labels[k] = v
		}
	}
	if in.Annotations != nil {
		out.Annotations = make(map[string]string, len(in.Annotations))
		for k, v := range in.Annotations {
			out.Annotations[k] = v
		}
	}

	return out
}
