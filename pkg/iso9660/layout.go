package iso9660

import (
	"github.com/rstms/iso-reader/pkg/consts"
	"github.com/rstms/iso-reader/pkg/iso9660/directory"
	"github.com/rstms/iso-reader/pkg/iso9660/info"
)

// Layout walks the whole volume and reports where the system area, the primary descriptor and every file and
// directory extent live in the image.
func (v *Volume) Layout() (*info.ISOLayout, error) {
	layout := info.NewISOLayout(v.BlockSize())
	layout.SystemAreaOffset = 0
	layout.SystemAreaLength = consts.ISO9660_VOLUME_DESC_OFFSET
	layout.AddVolumeDescriptor(v.pvd.Type().String(), int(v.pvd.Version()), consts.ISO9660_VOLUME_DESC_OFFSET, consts.ISO9660_SECTOR_SIZE)
	layout.AddExtent(rootName, v.rootEntry.LBA, v.rootEntry.Size, true)

	err := v.Walk(rootName, func(path string, e directory.Entry) error {
		layout.AddExtent(path, e.LBA, e.Size, e.IsDir)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return layout, nil
}
