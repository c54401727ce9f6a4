package testdata

// KDFVector is a known PBKDF2-HMAC-SHA256 output, split into the two keys.
type KDFVector struct {
	Name       string
	Password   string
	Salt       string
	Iterations int
	EncKey     string // Hex
	AuthKey    string // Hex
}

// KDFVectors come from RFC 7914 section 11.
var KDFVectors = []KDFVector{
	{
		Name:       "RFC 7914 passwd/salt c=1",
		Password:   "passwd",
		Salt:       "salt",
		Iterations: 1,
		EncKey:     "55ac046e56e3089fec1691c22544b605f94185216dde0465e68b9d57c20dacbc",
		AuthKey:    "49ca9cccf179b645991664b39d77ef317c71b845b1e30bd509112041d3a19783",
	},
}

// LegacyKDF pins the default derivation over the fixed salt {0x21, 0x24, 0x2F}
// with 100000 iterations. Existing records depend on these exact bytes.
var LegacyKDF = KDFVector{
	Name:       "legacy salt abc123",
	Password:   "abc123",
	Salt:       "\x21\x24\x2f",
	Iterations: 100000,
	EncKey:     "bed23ff5253fccd222a69d268dae62e74a11c8287df25214ba999cf0deb7f942",
	AuthKey:    "5653a6ba0fed10450e57d1575f1e9413c5dadc3c2e0c2560c77614d4b332a11c",
}

// MACVector is a known HMAC-SHA256 output.
type MACVector struct {
	Name string
	Key  string // Hex
	Data string
	Tag  string // Hex
}

// MACVectors come from RFC 4231.
var MACVectors = []MACVector{
	{
		Name: "RFC 4231 test case 2",
		Key:  "4a656665", // "Jefe"
		Data: "what do ya want for nothing?",
		Tag:  "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843",
	},
}

// CBCVector is the first block of NIST SP 800-38A F.2.5 (CBC-AES256).
type CBCVector struct {
	Key        string // Hex
	IV         string // Hex
	Plaintext  string // Hex
	Ciphertext string // Hex
}

// CBCFirstBlock is used to check the cipher wiring, padding aside.
var CBCFirstBlock = CBCVector{
	Key:        "603deb1015ca71be2b73aef0857d77811f352c073b6108d72d9810a30914dff4",
	IV:         "000102030405060708090a0b0c0d0e0f",
	Plaintext:  "6bc1bee22e409f96e93d7e117393172a",
	Ciphertext: "f58c4c04d6e5f1ba779eabfb5f7bfbd6",
}
