package consts

const (
	// Number of system area sectors.
	ISO9660_SYSTEM_AREA_SECTORS = 16

	// Standard ISO9660 identifier.
	ISO9660_STD_IDENTIFIER = "CD001"

	// ISO9660 default sector size. Volume descriptors always occupy one 2048-byte sector regardless of the
	// logical block size recorded in the Primary Volume Descriptor.
	ISO9660_SECTOR_SIZE = 2048

	// Byte offset of the first volume descriptor (16 * 2048).
	ISO9660_VOLUME_DESC_OFFSET = ISO9660_SYSTEM_AREA_SECTORS * ISO9660_SECTOR_SIZE

	// ISO9660 volume descriptor header size
	ISO9660_VOLUME_DESC_HEADER_SIZE = 7

	// Primary Volume Descriptor field offsets.
	PVD_STD_IDENTIFIER_OFFSET   = 1
	PVD_LOGICAL_BLOCK_SIZE      = 128
	PVD_ROOT_DIRECTORY_RECORD   = 156
	PVD_ROOT_DIRECTORY_REC_SIZE = 34

	// Directory record field offsets.
	DR_LOCATION_OF_EXTENT      = 2
	DR_DATA_LENGTH             = 10
	DR_RECORDING_DATE_AND_TIME = 18
	DR_FILE_FLAGS              = 25
	DR_VOLUME_SEQUENCE_NUMBER  = 28
	DR_FILE_IDENTIFIER_LENGTH  = 32
	DR_FILE_IDENTIFIER         = 33

	// Separators allowed by ISO9660 0x2E and 0x3B.
	ISO9660_SEPARATOR_1 = "."
	ISO9660_SEPARATOR_2 = ";"

	// Identifiers of the self and parent directory records.
	ISO9660_SELF_IDENTIFIER   = "\x00"
	ISO9660_PARENT_IDENTIFIER = "\x01"
)
