// Package vm provisions machines on the local host.
//
// A Manager sequences the image repository, the instance store, the
// configuration-drive builder and the libvirt domain builder:
//   - Create: import the image, create the instance disk, assign MACs,
//     build the configuration drive and start the domain
//   - Destroy: stop the domain and remove the instance directory
//   - List: report instance directories with an unknown status
//   - ApplyFile: Create each Machine of a resource document in order
//
// Error Handling:
//
// Operations stop at the first failure and return it wrapped with the
// instance name. Nothing is rolled back; Destroy is idempotent and is the
// cleanup path for a partially created instance.
//
// Collaborators are consumer-side interfaces (see interfaces.go) so tests
// substitute mocks for the filesystem, external tools and libvirt.
package vm
