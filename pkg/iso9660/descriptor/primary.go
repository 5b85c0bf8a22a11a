package descriptor

import (
	"fmt"
	"strings"

	"github.com/rstms/iso-reader/pkg/consts"
	"github.com/rstms/iso-reader/pkg/iso9660/directory"
	"github.com/rstms/iso-reader/pkg/iso9660/encoding"
)

// Primary Volume Descriptor field offsets, counted from the first byte of the descriptor sector.
const (
	pvdSystemIdentifier       = 8
	pvdVolumeIdentifier       = 40
	pvdVolumeSpaceSize        = 80
	pvdVolumeSetSize          = 120
	pvdVolumeSequenceNumber   = 124
	pvdPathTableSize          = 132
	pvdVolumeSetIdentifier    = 190
	pvdPublisherIdentifier    = 318
	pvdDataPreparerIdentifier = 446
	pvdApplicationIdentifier  = 574
	pvdFileStructureVersion   = 881
)

// PrimaryVolumeDescriptor holds the fields of the Primary Volume Descriptor that a reader needs to locate the
// directory hierarchy, plus the identifiers shown to users.
type PrimaryVolumeDescriptor struct {
	VolumeDescriptorHeader
	// System Identifier specifies a system which can recognize and act upon the content of the Logical Sectors within
	// logical Sector Numbers 0 to 15 of the volume.
	//  | (a-characters)
	SystemIdentifier string `json:"system_identifier"`
	// Volume Identifier specifies an identification of the volume
	//  | (d-characters)
	VolumeIdentifier string `json:"volume_identifier"`
	// Volume Space Size is the number of logical blocks in which the Volume Space of the volume is recorded.
	//  | Encoding: BothByteOrder
	VolumeSpaceSize uint32 `json:"volume_space_size"`
	// Volume Set Size is the assigned Volume Set size of the volume.
	//  | Encoding: BothByteOrder
	VolumeSetSize uint16 `json:"volume_set_size"`
	// Volume Sequence Number is the ordinal number of the volume in the Volume Set.
	//  | Encoding: BothByteOrder
	VolumeSequenceNumber uint16 `json:"volume_sequence_number"`
	// Logical Block Size specifies the size in bytes of a logical block
	//  | Encoding: BothByteOrder
	LogicalBlockSize uint16 `json:"logical_block_size"`
	// Path Table Size specifies the length in bytes of the Path Table. Path tables are not used for lookups.
	//  | Encoding: BothByteOrder
	PathTableSize uint32 `json:"path_table_size"`
	// Root Directory Record contains an occurrence of the Directory Record for the Root Directory.
	RootDirectoryRecord *directory.DirectoryRecord `json:"root_directory_record"`
	// Volume Set Identifier specifies an identification of the Volume Set of which the volume is a member.
	VolumeSetIdentifier string `json:"volume_set_identifier"`
	// Publisher Identifier specifies the user who specified what shall be recorded on the volume.
	PublisherIdentifier string `json:"publisher_identifier"`
	// Data Preparer Identifier specifies the entity which controls the preparation of the data.
	DataPreparerIdentifier string `json:"data_preparer_identifier"`
	// Application Identifier specifies how the data are recorded on the volume.
	ApplicationIdentifier string `json:"application_identifier"`
	// File Structure Version is 1 for ISO9660 directory records and path tables.
	FileStructureVersion uint8 `json:"file_structure_version"`
}

// RootDirectory returns the record of the root directory.
func (pvd *PrimaryVolumeDescriptor) RootDirectory() *directory.DirectoryRecord {
	return pvd.RootDirectoryRecord
}

// ParsePrimaryVolumeDescriptor decodes a descriptor sector. The standard identifier is checked before anything
// else, so a sector that is not ISO9660 fails with ErrInvalidSignature.
func ParsePrimaryVolumeDescriptor(data []byte) (*PrimaryVolumeDescriptor, error) {
	pvd := &PrimaryVolumeDescriptor{}
	if err := pvd.Unmarshal(data); err != nil {
		return nil, err
	}
	return pvd, nil
}

// Unmarshal decodes the descriptor from a full 2048-byte sector.
func (pvd *PrimaryVolumeDescriptor) Unmarshal(data []byte) error {
	if len(data) < consts.ISO9660_VOLUME_DESC_HEADER_SIZE {
		return fmt.Errorf("%w: descriptor of %d bytes has no header", ErrInvalidSignature, len(data))
	}
	if err := pvd.VolumeDescriptorHeader.Unmarshal([consts.ISO9660_VOLUME_DESC_HEADER_SIZE]byte(data[:consts.ISO9660_VOLUME_DESC_HEADER_SIZE])); err != nil {
		return fmt.Errorf("failed to unmarshal VolumeDescriptorHeader: %w", err)
	}
	if len(data) < consts.ISO9660_SECTOR_SIZE {
		return fmt.Errorf("data too short: expected %d bytes, got %d", consts.ISO9660_SECTOR_SIZE, len(data))
	}

	pvd.SystemIdentifier = trimIdentifier(data[pvdSystemIdentifier : pvdSystemIdentifier+32])
	pvd.VolumeIdentifier = trimIdentifier(data[pvdVolumeIdentifier : pvdVolumeIdentifier+32])

	var err error
	if pvd.VolumeSpaceSize, err = encoding.UnmarshalUint32LSB(data, pvdVolumeSpaceSize); err != nil {
		return fmt.Errorf("failed to unmarshal volume space size: %w", err)
	}
	if pvd.VolumeSetSize, err = encoding.UnmarshalUint16LSB(data, pvdVolumeSetSize); err != nil {
		return fmt.Errorf("failed to unmarshal volume set size: %w", err)
	}
	if pvd.VolumeSequenceNumber, err = encoding.UnmarshalUint16LSB(data, pvdVolumeSequenceNumber); err != nil {
		return fmt.Errorf("failed to unmarshal volume sequence number: %w", err)
	}
	if pvd.LogicalBlockSize, err = encoding.UnmarshalUint16LSB(data, consts.PVD_LOGICAL_BLOCK_SIZE); err != nil {
		return fmt.Errorf("failed to unmarshal logical block size: %w", err)
	}
	if pvd.PathTableSize, err = encoding.UnmarshalUint32LSB(data, pvdPathTableSize); err != nil {
		return fmt.Errorf("failed to unmarshal path table size: %w", err)
	}

	root := &directory.DirectoryRecord{}
	if err := root.Unmarshal(data[consts.PVD_ROOT_DIRECTORY_RECORD : consts.PVD_ROOT_DIRECTORY_RECORD+consts.PVD_ROOT_DIRECTORY_REC_SIZE]); err != nil {
		return fmt.Errorf("failed to unmarshal root directory record: %w", err)
	}
	pvd.RootDirectoryRecord = root

	pvd.VolumeSetIdentifier = trimIdentifier(data[pvdVolumeSetIdentifier : pvdVolumeSetIdentifier+128])
	pvd.PublisherIdentifier = trimIdentifier(data[pvdPublisherIdentifier : pvdPublisherIdentifier+128])
	pvd.DataPreparerIdentifier = trimIdentifier(data[pvdDataPreparerIdentifier : pvdDataPreparerIdentifier+128])
	pvd.ApplicationIdentifier = trimIdentifier(data[pvdApplicationIdentifier : pvdApplicationIdentifier+128])
	pvd.FileStructureVersion = data[pvdFileStructureVersion]

	return nil
}

// Marshal converts the descriptor into a 2048-byte sector. Identifier fields are padded with spaces and fields
// not modelled by PrimaryVolumeDescriptor are left zero.
func (pvd *PrimaryVolumeDescriptor) Marshal() ([consts.ISO9660_SECTOR_SIZE]byte, error) {
	var data [consts.ISO9660_SECTOR_SIZE]byte

	headerBytes, err := pvd.VolumeDescriptorHeader.Marshal()
	if err != nil {
		return data, fmt.Errorf("failed to marshal VolumeDescriptorHeader: %w", err)
	}
	copy(data[:consts.ISO9660_VOLUME_DESC_HEADER_SIZE], headerBytes[:])

	copy(data[pvdSystemIdentifier:pvdSystemIdentifier+32], padIdentifier(pvd.SystemIdentifier, 32))
	copy(data[pvdVolumeIdentifier:pvdVolumeIdentifier+32], padIdentifier(pvd.VolumeIdentifier, 32))

	vsBytes := encoding.MarshalBothByteOrders32(pvd.VolumeSpaceSize)
	copy(data[pvdVolumeSpaceSize:pvdVolumeSpaceSize+8], vsBytes[:])

	vssBytes := encoding.MarshalBothByteOrders16(pvd.VolumeSetSize)
	copy(data[pvdVolumeSetSize:pvdVolumeSetSize+4], vssBytes[:])

	vsnBytes := encoding.MarshalBothByteOrders16(pvd.VolumeSequenceNumber)
	copy(data[pvdVolumeSequenceNumber:pvdVolumeSequenceNumber+4], vsnBytes[:])

	lbsBytes := encoding.MarshalBothByteOrders16(pvd.LogicalBlockSize)
	copy(data[consts.PVD_LOGICAL_BLOCK_SIZE:consts.PVD_LOGICAL_BLOCK_SIZE+4], lbsBytes[:])

	ptsBytes := encoding.MarshalBothByteOrders32(pvd.PathTableSize)
	copy(data[pvdPathTableSize:pvdPathTableSize+8], ptsBytes[:])

	if pvd.RootDirectoryRecord == nil {
		return data, fmt.Errorf("rootDirectoryRecord is nil")
	}
	rdBytes, err := pvd.RootDirectoryRecord.Marshal()
	if err != nil {
		return data, fmt.Errorf("failed to marshal rootDirectoryRecord: %w", err)
	}
	if len(rdBytes) != consts.PVD_ROOT_DIRECTORY_REC_SIZE {
		return data, fmt.Errorf("expected %d bytes for rootDirectoryRecord, got %d", consts.PVD_ROOT_DIRECTORY_REC_SIZE, len(rdBytes))
	}
	copy(data[consts.PVD_ROOT_DIRECTORY_RECORD:], rdBytes)

	copy(data[pvdVolumeSetIdentifier:pvdVolumeSetIdentifier+128], padIdentifier(pvd.VolumeSetIdentifier, 128))
	copy(data[pvdPublisherIdentifier:pvdPublisherIdentifier+128], padIdentifier(pvd.PublisherIdentifier, 128))
	copy(data[pvdDataPreparerIdentifier:pvdDataPreparerIdentifier+128], padIdentifier(pvd.DataPreparerIdentifier, 128))
	copy(data[pvdApplicationIdentifier:pvdApplicationIdentifier+128], padIdentifier(pvd.ApplicationIdentifier, 128))

	data[pvdFileStructureVersion] = pvd.FileStructureVersion

	return data, nil
}

func trimIdentifier(raw []byte) string {
	return strings.TrimRight(encoding.DecodeIdentifier(raw), " \x00")
}

// padIdentifier truncates or space-pads s to exactly n bytes.
func padIdentifier(s string, n int) []byte {
	if len(s) >= n {
		return []byte(s[:n])
	}
	return []byte(s + strings.Repeat(" ", n-len(s)))
}
