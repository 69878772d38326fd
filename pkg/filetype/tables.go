package filetype

// Short type codes are the first four payload bytes read big-endian.
// The PC build and the Xbox 360 build disagree on most of them.
var TypeToExtPC = map[uint32]string{
	0x00040000: ".ANM",
	0x00000500: ".BLD",
	0x00000600: ".CLS",
	0x46505334: ".FPS4",
	0x00010000: ".HRC",
	0x00000300: ".MTR",
	0x00000400: ".SHD",
	0x00000100: ".SPM",
	0xFFFFFFFF: ".SPV",
	0x54525348: ".TER",
	0x00020000: ".TXM",
	0x00155094: ".TXV",
	0x00014094: ".TXV",
	0x00055094: ".TXV",
}

var TypeToExtX360 = map[uint32]string{
	0x00000400: ".ANM",
	0x00050000: ".BLD",
	0x00060000: ".CLS",
	0x46505334: ".FPS4",
	0x00000100: ".HRC",
	0x00030000: ".MTR",
	0x00040000: ".SHD",
	0x00010000: ".SPM",
	0x54525348: ".TER",
	0x00020000: ".TXM",
}

// LongTypes are textual tags stored in the first eight payload bytes.
var LongTypes = []string{
	"SCFOMBIN",
	"T8BTMO",
	"T8BTAT",
	"T8BTSL",
	"TSS",
	"T8BTMA",
	"T8BTEMST",
	"T8BTEMGP",
	"T8BTEMEG",
	"T8BTAS",
	"T8BTSK",
	"T8BTTA",
	"T8BTBS",
	"T8BTVA",
	"T8BTEFF",
	"T8BTBG",
	"T8BTLV",
	"T8BTBTGR",
	"T8BTGR",
	"T8BTEV",
	"TO8FOGD", // fog
	"TO8LITD", // light
	"TO8PSTD", // post effect
	"TO8SKYD", // sky
	"TO8WTRD", // water
	"TO8SK2D", // sky2
}

// EnvironmentTypes is the tail of LongTypes describing map environment data.
var EnvironmentTypes = LongTypes[len(LongTypes)-6:]

// KnownExt lists extensions of formats with a fixed layout.
var KnownExt = map[string]bool{
	".ANM": true,
	".BLD": true,
	".CLS": true,
	".HRC": true,
	".MTR": true,
	".SHD": true,
	".SPM": true,
	".SPV": true,
	".TXM": true,
	".TXV": true,
}

var longTypeSet = func() map[string]bool {
	m := make(map[string]bool, len(LongTypes))
	for _, t := range LongTypes {
		m[t] = true
	}
	return m
}()
