package tiff

import "fmt"

// Tag identifies a TIFF field.
type Tag uint16

// Tags consumed by the directory readers.
const (
	TagNewSubfileType      Tag = 254
	TagImageWidth          Tag = 256
	TagImageLength         Tag = 257
	TagBitsPerSample       Tag = 258
	TagCompression         Tag = 259
	TagPhotometric         Tag = 262
	TagImageDescription    Tag = 270
	TagMake                Tag = 271
	TagModel               Tag = 272
	TagStripOffsets        Tag = 273
	TagSamplesPerPixel     Tag = 277
	TagRowsPerStrip        Tag = 278
	TagStripByteCounts     Tag = 279
	TagXResolution         Tag = 282
	TagYResolution         Tag = 283
	TagPlanarConfiguration Tag = 284
	TagResolutionUnit      Tag = 296
	TagSoftware            Tag = 305
	TagDateTime            Tag = 306
	TagArtist              Tag = 315
	TagHostComputer        Tag = 316
	TagTileWidth           Tag = 322
	TagTileLength          Tag = 323
	TagTileOffsets         Tag = 324
	TagTileByteCounts      Tag = 325
	TagCopyright           Tag = 33432
)

var tagNames = map[Tag]string{
	TagNewSubfileType:      "NewSubfileType",
	TagImageWidth:          "ImageWidth",
	TagImageLength:         "ImageLength",
	TagBitsPerSample:       "BitsPerSample",
	TagCompression:         "Compression",
	TagPhotometric:         "PhotometricInterpretation",
	TagImageDescription:    "ImageDescription",
	TagMake:                "Make",
	TagModel:               "Model",
	TagStripOffsets:        "StripOffsets",
	TagSamplesPerPixel:     "SamplesPerPixel",
	TagRowsPerStrip:        "RowsPerStrip",
	TagStripByteCounts:     "StripByteCounts",
	TagXResolution:         "XResolution",
	TagYResolution:         "YResolution",
	TagPlanarConfiguration: "PlanarConfiguration",
	TagResolutionUnit:      "ResolutionUnit",
	TagSoftware:            "Software",
	TagDateTime:            "DateTime",
	TagArtist:              "Artist",
	TagHostComputer:        "HostComputer",
	TagTileWidth:           "TileWidth",
	TagTileLength:          "TileLength",
	TagTileOffsets:         "TileOffsets",
	TagTileByteCounts:      "TileByteCounts",
	TagCopyright:           "Copyright",
}

// String returns the TIFF name of the tag, or its number for unknown tags.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", uint16(t))
}

// ASCIIPropertyTags lists the string tags exported as "tiff.<Name>" properties.
var ASCIIPropertyTags = []Tag{
	TagImageDescription,
	TagMake,
	TagModel,
	TagSoftware,
	TagDateTime,
	TagArtist,
	TagHostComputer,
	TagCopyright,
}

// FieldType is the TIFF data type of a field.
type FieldType uint16

// Field types from TIFF 6.0 and BigTIFF.
const (
	TypeByte      FieldType = 1
	TypeASCII     FieldType = 2
	TypeShort     FieldType = 3
	TypeLong      FieldType = 4
	TypeRational  FieldType = 5
	TypeSByte     FieldType = 6
	TypeUndefined FieldType = 7
	TypeSShort    FieldType = 8
	TypeSLong     FieldType = 9
	TypeSRational FieldType = 10
	TypeFloat     FieldType = 11
	TypeDouble    FieldType = 12
	TypeIFD       FieldType = 13
	TypeLong8     FieldType = 16
	TypeSLong8    FieldType = 17
	TypeIFD8      FieldType = 18
)

// Size returns the size in bytes of a single value of the type,
// or 0 for unknown types.
func (t FieldType) Size() int {
	switch t {
	case TypeByte, TypeASCII, TypeSByte, TypeUndefined:
		return 1
	case TypeShort, TypeSShort:
		return 2
	case TypeLong, TypeSLong, TypeFloat, TypeIFD:
		return 4
	case TypeRational, TypeSRational, TypeDouble, TypeLong8, TypeSLong8, TypeIFD8:
		return 8
	default:
		return 0
	}
}

// Subfile type bits of the NewSubfileType tag.
const (
	SubfileReducedImage uint64 = 1 << 0
	SubfilePage         uint64 = 1 << 1
	SubfileMask         uint64 = 1 << 2
)
