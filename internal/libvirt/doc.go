// Package libvirt connects to the local libvirt daemon and builds the
// domains ironvirt starts on it.
//
// Domains are described with a DomainBuilder: identity, resources and the
// boot disk are fixed at construction, then network interfaces, storage
// attachments and the configuration drive are appended in order. Render
// marshals the accumulated devices through libvirtxml, so the document is
// always structurally valid XML:
//
//	b := libvirt.NewDomainBuilder("web01", 2, 2<<30, diskPath, libvirt.Options{})
//	b.AddBridgedInterface("br0", mac.String())
//	if _, err := b.AddFileBackedStorage("/data/web01.img"); err != nil {
//	    return err
//	}
//	b.AddCdromFromISO(isoPath)
//	if err := b.Build(ctx, client.Libvirt()); err != nil {
//	    return err
//	}
//
// Domains are transient: Build calls DomainCreateXML, and Destroy stops a
// domain by name, treating an unknown domain as already gone.
//
// DomainCreator and DomainDestroyer are satisfied by *libvirt.Libvirt from
// github.com/digitalocean/go-libvirt, so callers pass Client.Libvirt()
// directly and tests pass fakes.
package libvirt
