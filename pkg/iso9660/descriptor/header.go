package descriptor

import (
	"errors"
	"fmt"

	"github.com/rstms/iso-reader/pkg/consts"
)

// ErrInvalidSignature is returned when a volume descriptor does not carry the CD001 standard identifier.
var ErrInvalidSignature = errors.New("invalid ISO9660 signature")

type VolumeDescriptorHeader struct {
	// Volume Descriptor Types.
	//  | 0 = Boot Record
	//  | 1 = Primary
	//  | 2 = Supplementary
	//  | 3 = Partition
	//  | 4 - 254 = Reserved
	//  | 255 = Terminator
	VolumeDescriptorType VolumeDescriptorType `json:"volume_descriptor_type"`
	// Standard Identifier should always be 'CD001' as a string or 0x4344303031.
	StandardIdentifier string `json:"standard_identifier"`
	// Volume Descriptor Version. The contents and interpretation depend on the Volume Descriptor Type field.
	VolumeDescriptorVersion uint8 `json:"volume_descriptor_version"`
}

func (h *VolumeDescriptorHeader) Type() VolumeDescriptorType {
	return h.VolumeDescriptorType
}

func (h *VolumeDescriptorHeader) Identifier() string {
	return h.StandardIdentifier
}

func (h *VolumeDescriptorHeader) Version() uint8 {
	return h.VolumeDescriptorVersion
}

// Unmarshal parses the 7-byte header. It returns ErrInvalidSignature when the standard identifier is not CD001.
func (vdh *VolumeDescriptorHeader) Unmarshal(data [consts.ISO9660_VOLUME_DESC_HEADER_SIZE]byte) error {
	vdh.VolumeDescriptorType = VolumeDescriptorType(data[0])
	vdh.StandardIdentifier = string(data[1:6])
	vdh.VolumeDescriptorVersion = data[6]

	if vdh.StandardIdentifier != consts.ISO9660_STD_IDENTIFIER {
		return fmt.Errorf("%w: unexpected standard identifier %q", ErrInvalidSignature, vdh.StandardIdentifier)
	}

	return nil
}

// Marshal returns the 7-byte on-disk header.
func (vdh *VolumeDescriptorHeader) Marshal() ([consts.ISO9660_VOLUME_DESC_HEADER_SIZE]byte, error) {
	var data [consts.ISO9660_VOLUME_DESC_HEADER_SIZE]byte
	if len(vdh.StandardIdentifier) != 5 {
		return data, fmt.Errorf("standard identifier %q must be 5 bytes", vdh.StandardIdentifier)
	}
	data[0] = byte(vdh.VolumeDescriptorType)
	copy(data[1:6], vdh.StandardIdentifier)
	data[6] = vdh.VolumeDescriptorVersion
	return data, nil
}
