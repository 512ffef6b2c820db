package caps

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// General is the General Capability Set (MS-RDPBCGR 2.2.7.1.1): platform
// identity and the handful of protocol-version flags every session needs
// agreement on.
type General struct {
	OSMajorType           uint16
	OSMinorType           uint16
	ProtocolVersion       uint16
	CompressionTypes      uint16
	ExtraFlags            uint16
	UpdateCapabilityFlag  uint16
	RemoteUnshareFlag     uint16
	CompressionLevel      uint16
	RefreshRectSupport    uint8
	SuppressOutputSupport uint8
}

const generalBodySize = 2*9 + 1 + 1

func (g *General) Name() string  { return "GeneralCapabilitySet" }
func (g *General) Type() SetType { return TypeGeneral }
func (g *General) Size() int     { return headerSize + generalBodySize }

func (g *General) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(g.Name(), dst, g.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeGeneral, generalBodySize)
	dst.WriteU16LE(g.OSMajorType)
	dst.WriteU16LE(g.OSMinorType)
	dst.WriteU16LE(g.ProtocolVersion)
	dst.WriteU16LE(0) // pad2octetsA
	dst.WriteU16LE(g.CompressionTypes)
	dst.WriteU16LE(g.ExtraFlags)
	dst.WriteU16LE(g.UpdateCapabilityFlag)
	dst.WriteU16LE(g.RemoteUnshareFlag)
	dst.WriteU16LE(g.CompressionLevel)
	dst.WriteU8(g.RefreshRectSupport)
	dst.WriteU8(g.SuppressOutputSupport)
	return nil
}

func decodeGeneralBody(src *cursor.Reader) (*General, error) {
	g := &General{}
	if src.Len() >= 2 {
		g.OSMajorType = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		g.OSMinorType = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		g.ProtocolVersion = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		src.ReadU16LE() // pad2octetsA
	}
	if src.Len() >= 2 {
		g.CompressionTypes = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		g.ExtraFlags = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		g.UpdateCapabilityFlag = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		g.RemoteUnshareFlag = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		g.CompressionLevel = src.ReadU16LE()
	}
	if src.Len() >= 1 {
		g.RefreshRectSupport = src.ReadU8()
	}
	if src.Len() >= 1 {
		g.SuppressOutputSupport = src.ReadU8()
	}
	return g, nil
}

// Bitmap is the Bitmap Capability Set (MS-RDPBCGR 2.2.7.1.2): colour
// depth and desktop geometry the client is prepared to render.
type Bitmap struct {
	PreferredBitsPerPixel    uint16
	DesktopWidth             uint16
	DesktopHeight            uint16
	DesktopResizeFlag        uint16
	BitmapCompressionFlag    uint16
	MultipleRectangleSupport uint16
}

const bitmapBodySize = 2*9 + 1 + 1 + 2 + 2

func (b *Bitmap) Name() string  { return "BitmapCapabilitySet" }
func (b *Bitmap) Type() SetType { return TypeBitmap }
func (b *Bitmap) Size() int     { return headerSize + bitmapBodySize }

func (b *Bitmap) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(b.Name(), dst, b.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeBitmap, bitmapBodySize)
	dst.WriteU16LE(b.PreferredBitsPerPixel)
	dst.WriteU16LE(1) // receive1BitPerPixel
	dst.WriteU16LE(1) // receive4BitsPerPixel
	dst.WriteU16LE(1) // receive8BitsPerPixel
	dst.WriteU16LE(b.DesktopWidth)
	dst.WriteU16LE(b.DesktopHeight)
	dst.WriteU16LE(0) // pad2octets
	dst.WriteU16LE(b.DesktopResizeFlag)
	dst.WriteU16LE(b.BitmapCompressionFlag)
	dst.WriteU8(0) // highColorFlags, obsolete
	dst.WriteU8(0) // drawingFlags
	dst.WriteU16LE(b.MultipleRectangleSupport)
	dst.WriteU16LE(0) // pad2octetsB
	return nil
}

func decodeBitmapBody(src *cursor.Reader) (*Bitmap, error) {
	b := &Bitmap{}
	fields := []*uint16{&b.PreferredBitsPerPixel, nil, nil, nil, &b.DesktopWidth, &b.DesktopHeight, nil, &b.DesktopResizeFlag, &b.BitmapCompressionFlag}
	for _, f := range fields {
		if src.Len() < 2 {
			return b, nil
		}
		v := src.ReadU16LE()
		if f != nil {
			*f = v
		}
	}
	if src.Len() >= 2 {
		src.ReadU8()
		src.ReadU8()
	}
	if src.Len() >= 2 {
		b.MultipleRectangleSupport = src.ReadU16LE()
	}
	return b, nil
}

// Order is the Order Capability Set (MS-RDPBCGR 2.2.7.1.3), reduced to
// the order-support bitmask the session loop actually consults.
type Order struct {
	OrderSupport      [32]byte
	OrderFlags        uint16
	OrderSupportExFlags uint16
	DesktopSaveSize   uint32
}

const orderBodySize = 16 + 4 + 2 + 2 + 2 + 2 + 2 + 2 + 32 + 2 + 2 + 4 + 4 + 2 + 2 + 2 + 2

func (o *Order) Name() string  { return "OrderCapabilitySet" }
func (o *Order) Type() SetType { return TypeOrder }
func (o *Order) Size() int     { return headerSize + orderBodySize }

func (o *Order) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(o.Name(), dst, o.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeOrder, orderBodySize)
	dst.WriteSlice(make([]byte, 16)) // terminalDescriptor
	dst.WriteU32LE(0)                // pad4octetsA
	dst.WriteU16LE(1)                // desktopSaveXGranularity
	dst.WriteU16LE(20)               // desktopSaveYGranularity
	dst.WriteU16LE(0)                // pad2octetsA
	dst.WriteU16LE(1)                // maximumOrderLevel
	dst.WriteU16LE(0)                // numberFonts
	dst.WriteU16LE(o.OrderFlags)
	dst.WriteSlice(o.OrderSupport[:])
	dst.WriteU16LE(0) // textFlags
	dst.WriteU16LE(o.OrderSupportExFlags)
	dst.WriteU32LE(0) // pad4octetsB
	dst.WriteU32LE(o.DesktopSaveSize)
	dst.WriteU16LE(0) // pad2octetsC
	dst.WriteU16LE(0) // pad2octetsD
	dst.WriteU16LE(0) // textANSICodePage
	dst.WriteU16LE(0) // pad2octetsE
	return nil
}

func decodeOrderBody(src *cursor.Reader) (*Order, error) {
	o := &Order{}
	if _, err := src.TryReadSlice(16 + 4 + 2 + 2 + 2 + 2 + 2); err != nil {
		return o, nil
	}
	o.OrderFlags = src.ReadU16LE()
	if sup, err := src.TryReadSlice(32); err == nil {
		copy(o.OrderSupport[:], sup)
	}
	if src.Len() >= 2 {
		src.ReadU16LE() // textFlags
	}
	if src.Len() >= 2 {
		o.OrderSupportExFlags = src.ReadU16LE()
	}
	if src.Len() >= 8 {
		src.ReadU32LE() // pad4octetsB
		o.DesktopSaveSize = src.ReadU32LE()
	}
	return o, nil
}

// Pointer is the Pointer Capability Set (MS-RDPBCGR 2.2.7.1.5).
type Pointer struct {
	ColorPointerFlag  uint16
	ColorPointerCacheSize uint16
	PointerCacheSize  uint16
}

func (p *Pointer) Name() string  { return "PointerCapabilitySet" }
func (p *Pointer) Type() SetType { return TypePointer }
func (p *Pointer) Size() int     { return headerSize + 6 }

func (p *Pointer) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(p.Name(), dst, p.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypePointer, 6)
	dst.WriteU16LE(p.ColorPointerFlag)
	dst.WriteU16LE(p.ColorPointerCacheSize)
	dst.WriteU16LE(p.PointerCacheSize)
	return nil
}

func decodePointerBody(src *cursor.Reader) (*Pointer, error) {
	p := &Pointer{}
	if src.Len() >= 2 {
		p.ColorPointerFlag = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		p.ColorPointerCacheSize = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		p.PointerCacheSize = src.ReadU16LE()
	}
	return p, nil
}

// Input is the Input Capability Set (MS-RDPBCGR 2.2.7.1.6).
type Input struct {
	InputFlags     uint16
	KeyboardLayout uint32
	KeyboardType   uint32
	KeyboardSubType uint32
	KeyboardFunctionKeys uint32
	ImeFileName    string
}

const inputBodySize = 2 + 2 + 4 + 4 + 4 + 4 + 64

func (i *Input) Name() string  { return "InputCapabilitySet" }
func (i *Input) Type() SetType { return TypeInput }
func (i *Input) Size() int     { return headerSize + inputBodySize }

func (i *Input) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(i.Name(), dst, i.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeInput, inputBodySize)
	dst.WriteU16LE(i.InputFlags)
	dst.WriteU16LE(0) // pad2octetsA
	dst.WriteU32LE(i.KeyboardLayout)
	dst.WriteU32LE(i.KeyboardType)
	dst.WriteU32LE(i.KeyboardSubType)
	dst.WriteU32LE(i.KeyboardFunctionKeys)
	name := make([]byte, 64)
	copy(name, []byte(i.ImeFileName))
	dst.WriteSlice(name)
	return nil
}

func decodeInputBody(src *cursor.Reader) (*Input, error) {
	in := &Input{}
	if src.Len() >= 2 {
		in.InputFlags = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		src.ReadU16LE()
	}
	if src.Len() >= 4 {
		in.KeyboardLayout = src.ReadU32LE()
	}
	if src.Len() >= 4 {
		in.KeyboardType = src.ReadU32LE()
	}
	if src.Len() >= 4 {
		in.KeyboardSubType = src.ReadU32LE()
	}
	if src.Len() >= 4 {
		in.KeyboardFunctionKeys = src.ReadU32LE()
	}
	return in, nil
}

// VirtualChannel is the Virtual Channel Capability Set (MS-RDPBCGR
// 2.2.7.1.10).
type VirtualChannel struct {
	Flags     uint32
	ChunkSize uint32
}

func (v *VirtualChannel) Name() string  { return "VirtualChannelCapabilitySet" }
func (v *VirtualChannel) Type() SetType { return TypeVirtualChannel }
func (v *VirtualChannel) Size() int     { return headerSize + 8 }

func (v *VirtualChannel) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(v.Name(), dst, v.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeVirtualChannel, 8)
	dst.WriteU32LE(v.Flags)
	dst.WriteU32LE(v.ChunkSize)
	return nil
}

func decodeVirtualChannelBody(src *cursor.Reader) (*VirtualChannel, error) {
	v := &VirtualChannel{}
	if src.Len() >= 4 {
		v.Flags = src.ReadU32LE()
	}
	if src.Len() >= 4 {
		v.ChunkSize = src.ReadU32LE()
	}
	return v, nil
}

// Sound is the Sound Capability Set (MS-RDPBCGR 2.2.7.1.11).
type Sound struct {
	SoundFlags uint16
}

func (s *Sound) Name() string  { return "SoundCapabilitySet" }
func (s *Sound) Type() SetType { return TypeSound }
func (s *Sound) Size() int     { return headerSize + 4 }

func (s *Sound) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(s.Name(), dst, s.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeSound, 4)
	dst.WriteU16LE(s.SoundFlags)
	dst.WriteU16LE(0) // pad2octetsA
	return nil
}

func decodeSoundBody(src *cursor.Reader) (*Sound, error) {
	s := &Sound{}
	if src.Len() >= 2 {
		s.SoundFlags = src.ReadU16LE()
	}
	return s, nil
}

// BitmapCache is the original Bitmap Cache Capability Set (MS-RDPBCGR
// 2.2.7.1.4); modern sessions prefer BitmapCacheV2 but servers may still
// advertise this form.
type BitmapCache struct {
	Cache0Entries int16
	Cache0MaxSize int16
	Cache1Entries int16
	Cache1MaxSize int16
	Cache2Entries int16
	Cache2MaxSize int16
}

const bitmapCacheBodySize = 24 + 2*6

func (b *BitmapCache) Name() string  { return "BitmapCacheCapabilitySet" }
func (b *BitmapCache) Type() SetType { return TypeBitmapCache }
func (b *BitmapCache) Size() int     { return headerSize + bitmapCacheBodySize }

func (b *BitmapCache) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(b.Name(), dst, b.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeBitmapCache, bitmapCacheBodySize)
	dst.WriteSlice(make([]byte, 24)) // pad1 + pad2 + pad3 + pad4 (unused fields)
	dst.WriteU16LE(uint16(b.Cache0Entries))
	dst.WriteU16LE(uint16(b.Cache0MaxSize))
	dst.WriteU16LE(uint16(b.Cache1Entries))
	dst.WriteU16LE(uint16(b.Cache1MaxSize))
	dst.WriteU16LE(uint16(b.Cache2Entries))
	dst.WriteU16LE(uint16(b.Cache2MaxSize))
	return nil
}

func decodeBitmapCacheBody(src *cursor.Reader) (*BitmapCache, error) {
	b := &BitmapCache{}
	if _, err := src.TryReadSlice(24); err != nil {
		return b, nil
	}
	if src.Len() >= 12 {
		b.Cache0Entries = int16(src.ReadU16LE())
		b.Cache0MaxSize = int16(src.ReadU16LE())
		b.Cache1Entries = int16(src.ReadU16LE())
		b.Cache1MaxSize = int16(src.ReadU16LE())
		b.Cache2Entries = int16(src.ReadU16LE())
		b.Cache2MaxSize = int16(src.ReadU16LE())
	}
	return b, nil
}

// BitmapCacheV2 is the Revision 2 Bitmap Cache Capability Set (MS-RDPBCGR
// 2.2.7.1.4.2) used by modern sessions in place of BitmapCache.
type BitmapCacheV2 struct {
	CacheFlags   uint16
	NumCellCaches uint8
	CellInfo     [5]struct {
		NumEntries int32
		Persistent bool
	}
}

const bitmapCacheV2BodySize = 2 + 1 + 1 + 4*5

func (b *BitmapCacheV2) Name() string  { return "BitmapCacheV2CapabilitySet" }
func (b *BitmapCacheV2) Type() SetType { return TypeBitmapCacheRev2 }
func (b *BitmapCacheV2) Size() int     { return headerSize + bitmapCacheV2BodySize }

func (b *BitmapCacheV2) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(b.Name(), dst, b.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeBitmapCacheRev2, bitmapCacheV2BodySize)
	dst.WriteU16LE(b.CacheFlags)
	dst.WriteU8(0) // pad2
	dst.WriteU8(b.NumCellCaches)
	for _, cell := range b.CellInfo {
		v := uint32(cell.NumEntries) & 0x7FFFFFFF
		if cell.Persistent {
			v |= 0x80000000
		}
		dst.WriteU32LE(v)
	}
	return nil
}

func decodeBitmapCacheV2Body(src *cursor.Reader) (*BitmapCacheV2, error) {
	b := &BitmapCacheV2{}
	if src.Len() >= 4 {
		b.CacheFlags = src.ReadU16LE()
		src.ReadU8()
		b.NumCellCaches = src.ReadU8()
	}
	for i := range b.CellInfo {
		if src.Len() < 4 {
			break
		}
		v := src.ReadU32LE()
		b.CellInfo[i].NumEntries = int32(v & 0x7FFFFFFF)
		b.CellInfo[i].Persistent = v&0x80000000 != 0
	}
	return b, nil
}

// ColorCache is the Color Table Cache Capability Set (MS-RDPBCGR
// 2.2.7.1.10, historical); retained for round-trip of legacy servers.
type ColorCache struct {
	CacheSize uint16
}

func (c *ColorCache) Name() string  { return "ColorCacheCapabilitySet" }
func (c *ColorCache) Type() SetType { return TypeColorCache }
func (c *ColorCache) Size() int     { return headerSize + 4 }

func (c *ColorCache) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(c.Name(), dst, c.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeColorCache, 4)
	dst.WriteU16LE(c.CacheSize)
	dst.WriteU16LE(0) // pad2octets
	return nil
}

func decodeColorCacheBody(src *cursor.Reader) (*ColorCache, error) {
	c := &ColorCache{}
	if src.Len() >= 2 {
		c.CacheSize = src.ReadU16LE()
	}
	return c, nil
}

// GlyphCache is the Glyph Cache Capability Set (MS-RDPBCGR 2.2.7.1.8).
type GlyphCache struct {
	GlyphCacheEntries [10]struct {
		CacheEntries   uint16
		CacheMaxCellSize uint16
	}
	FragCacheEntries   uint16
	FragCacheMaxCellSize uint16
	GlyphSupportLevel  uint16
}

const glyphCacheBodySize = 4*10 + 2 + 2 + 2 + 2 + 2 + 2

func (g *GlyphCache) Name() string  { return "GlyphCacheCapabilitySet" }
func (g *GlyphCache) Type() SetType { return TypeGlyphCache }
func (g *GlyphCache) Size() int     { return headerSize + glyphCacheBodySize }

func (g *GlyphCache) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(g.Name(), dst, g.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeGlyphCache, glyphCacheBodySize)
	for _, e := range g.GlyphCacheEntries {
		dst.WriteU16LE(e.CacheEntries)
		dst.WriteU16LE(e.CacheMaxCellSize)
	}
	dst.WriteU16LE(g.FragCacheEntries)
	dst.WriteU16LE(g.FragCacheMaxCellSize)
	dst.WriteU16LE(0) // pad2 to align FragCache entry width to 4 bytes
	dst.WriteU16LE(0)
	dst.WriteU16LE(g.GlyphSupportLevel)
	dst.WriteU16LE(0) // pad2octets
	return nil
}

func decodeGlyphCacheBody(src *cursor.Reader) (*GlyphCache, error) {
	g := &GlyphCache{}
	for i := range g.GlyphCacheEntries {
		if src.Len() < 4 {
			return g, nil
		}
		g.GlyphCacheEntries[i].CacheEntries = src.ReadU16LE()
		g.GlyphCacheEntries[i].CacheMaxCellSize = src.ReadU16LE()
	}
	if src.Len() >= 4 {
		g.FragCacheEntries = src.ReadU16LE()
		g.FragCacheMaxCellSize = src.ReadU16LE()
	}
	if src.Len() >= 4 {
		src.ReadU16LE()
		src.ReadU16LE()
	}
	if src.Len() >= 2 {
		g.GlyphSupportLevel = src.ReadU16LE()
	}
	return g, nil
}

// Brush is the Brush Capability Set (MS-RDPBCGR 2.2.7.1.7).
type Brush struct {
	BrushSupportLevel uint32
}

func (b *Brush) Name() string  { return "BrushCapabilitySet" }
func (b *Brush) Type() SetType { return TypeBrush }
func (b *Brush) Size() int     { return headerSize + 4 }

func (b *Brush) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(b.Name(), dst, b.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeBrush, 4)
	dst.WriteU32LE(b.BrushSupportLevel)
	return nil
}

func decodeBrushBody(src *cursor.Reader) (*Brush, error) {
	b := &Brush{}
	if src.Len() >= 4 {
		b.BrushSupportLevel = src.ReadU32LE()
	}
	return b, nil
}

// OffscreenBitmapCache is the Offscreen Bitmap Cache Capability Set
// (MS-RDPBCGR 2.2.7.1.9).
type OffscreenBitmapCache struct {
	Supported   bool
	CacheSize   uint16
	CacheEntries uint16
}

func (o *OffscreenBitmapCache) Name() string  { return "OffscreenBitmapCacheCapabilitySet" }
func (o *OffscreenBitmapCache) Type() SetType { return TypeOffscreenBitmapCache }
func (o *OffscreenBitmapCache) Size() int     { return headerSize + 8 }

func (o *OffscreenBitmapCache) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(o.Name(), dst, o.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeOffscreenBitmapCache, 8)
	var flag uint32
	if o.Supported {
		flag = 1
	}
	dst.WriteU32LE(flag)
	dst.WriteU16LE(o.CacheSize)
	dst.WriteU16LE(o.CacheEntries)
	return nil
}

func decodeOffscreenBitmapCacheBody(src *cursor.Reader) (*OffscreenBitmapCache, error) {
	o := &OffscreenBitmapCache{}
	if src.Len() >= 4 {
		o.Supported = src.ReadU32LE() != 0
	}
	if src.Len() >= 2 {
		o.CacheSize = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		o.CacheEntries = src.ReadU16LE()
	}
	return o, nil
}

// Control is the Control Capability Set (MS-RDPBCGR 2.2.7.2.2).
type Control struct {
	ControlFlags     uint16
	RemoteDetachFlag uint16
	ControlInterest  uint16
	DetachInterest   uint16
}

func (c *Control) Name() string  { return "ControlCapabilitySet" }
func (c *Control) Type() SetType { return TypeControl }
func (c *Control) Size() int     { return headerSize + 8 }

func (c *Control) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(c.Name(), dst, c.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeControl, 8)
	dst.WriteU16LE(c.ControlFlags)
	dst.WriteU16LE(c.RemoteDetachFlag)
	dst.WriteU16LE(c.ControlInterest)
	dst.WriteU16LE(c.DetachInterest)
	return nil
}

func decodeControlBody(src *cursor.Reader) (*Control, error) {
	c := &Control{}
	if src.Len() >= 2 {
		c.ControlFlags = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		c.RemoteDetachFlag = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		c.ControlInterest = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		c.DetachInterest = src.ReadU16LE()
	}
	return c, nil
}

// Activation is the Window Activation Capability Set (MS-RDPBCGR
// 2.2.7.2.3).
type Activation struct {
	HelpKeyFlag        uint16
	HelpKeyIndexFlag   uint16
	HelpExtendedKeyFlag uint16
	WindowManagerKeyFlag uint16
}

func (a *Activation) Name() string  { return "ActivationCapabilitySet" }
func (a *Activation) Type() SetType { return TypeActivation }
func (a *Activation) Size() int     { return headerSize + 8 }

func (a *Activation) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(a.Name(), dst, a.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeActivation, 8)
	dst.WriteU16LE(a.HelpKeyFlag)
	dst.WriteU16LE(a.HelpKeyIndexFlag)
	dst.WriteU16LE(a.HelpExtendedKeyFlag)
	dst.WriteU16LE(a.WindowManagerKeyFlag)
	return nil
}

func decodeActivationBody(src *cursor.Reader) (*Activation, error) {
	a := &Activation{}
	if src.Len() >= 2 {
		a.HelpKeyFlag = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		a.HelpKeyIndexFlag = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		a.HelpExtendedKeyFlag = src.ReadU16LE()
	}
	if src.Len() >= 2 {
		a.WindowManagerKeyFlag = src.ReadU16LE()
	}
	return a, nil
}

// Share is the Share Capability Set (MS-RDPBCGR 2.2.7.2.1), carrying the
// node id used to cross-check capability exchange PDUs.
type Share struct {
	NodeID uint16
}

func (s *Share) Name() string  { return "ShareCapabilitySet" }
func (s *Share) Type() SetType { return TypeShare }
func (s *Share) Size() int     { return headerSize + 4 }

func (s *Share) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(s.Name(), dst, s.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeShare, 4)
	dst.WriteU16LE(s.NodeID)
	dst.WriteU16LE(0) // pad2octets
	return nil
}

func decodeShareBody(src *cursor.Reader) (*Share, error) {
	s := &Share{}
	if src.Len() >= 2 {
		s.NodeID = src.ReadU16LE()
	}
	return s, nil
}

// Font is the Font Capability Set (MS-RDPBCGR 2.2.7.2.5).
type Font struct {
	FontSupportFlags uint16
}

func (f *Font) Name() string  { return "FontCapabilitySet" }
func (f *Font) Type() SetType { return TypeFont }
func (f *Font) Size() int     { return headerSize + 4 }

func (f *Font) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(f.Name(), dst, f.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeFont, 4)
	dst.WriteU16LE(f.FontSupportFlags)
	dst.WriteU16LE(0) // pad2octets
	return nil
}

func decodeFontBody(src *cursor.Reader) (*Font, error) {
	f := &Font{}
	if src.Len() >= 2 {
		f.FontSupportFlags = src.ReadU16LE()
	}
	return f, nil
}

// MultifragmentUpdate is the Multifragment Update Capability Set
// (MS-RDPBCGR 2.2.7.2.6).
type MultifragmentUpdate struct {
	MaxRequestSize uint32
}

func (m *MultifragmentUpdate) Name() string  { return "MultifragmentUpdateCapabilitySet" }
func (m *MultifragmentUpdate) Type() SetType { return TypeMultifragmentUpdate }
func (m *MultifragmentUpdate) Size() int     { return headerSize + 4 }

func (m *MultifragmentUpdate) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(m.Name(), dst, m.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeMultifragmentUpdate, 4)
	dst.WriteU32LE(m.MaxRequestSize)
	return nil
}

func decodeMultifragmentUpdateBody(src *cursor.Reader) (*MultifragmentUpdate, error) {
	m := &MultifragmentUpdate{}
	if src.Len() >= 4 {
		m.MaxRequestSize = src.ReadU32LE()
	}
	return m, nil
}

// LargePointer is the Large Pointer Capability Set (MS-RDPBCGR
// 2.2.7.2.7).
type LargePointer struct {
	SupportFlags uint16
}

func (l *LargePointer) Name() string  { return "LargePointerCapabilitySet" }
func (l *LargePointer) Type() SetType { return TypeLargePointer }
func (l *LargePointer) Size() int     { return headerSize + 2 }

func (l *LargePointer) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(l.Name(), dst, l.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeLargePointer, 2)
	dst.WriteU16LE(l.SupportFlags)
	return nil
}

func decodeLargePointerBody(src *cursor.Reader) (*LargePointer, error) {
	l := &LargePointer{}
	if src.Len() >= 2 {
		l.SupportFlags = src.ReadU16LE()
	}
	return l, nil
}

// SurfaceCommands is the Surface Commands Capability Set (MS-RDPBCGR
// 2.2.7.2.9).
type SurfaceCommands struct {
	CmdFlags uint32
}

func (s *SurfaceCommands) Name() string  { return "SurfaceCommandsCapabilitySet" }
func (s *SurfaceCommands) Type() SetType { return TypeSurfaceCommands }
func (s *SurfaceCommands) Size() int     { return headerSize + 8 }

func (s *SurfaceCommands) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(s.Name(), dst, s.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeSurfaceCommands, 8)
	dst.WriteU32LE(s.CmdFlags)
	dst.WriteU32LE(0) // reserved
	return nil
}

func decodeSurfaceCommandsBody(src *cursor.Reader) (*SurfaceCommands, error) {
	s := &SurfaceCommands{}
	if src.Len() >= 4 {
		s.CmdFlags = src.ReadU32LE()
	}
	return s, nil
}

// BitmapCodecs is the Bitmap Codecs Capability Set (MS-RDPBCGR
// 2.2.7.2.10), reduced to the raw per-codec TLV list since the codec GUID
// catalogue (RemoteFX, NSCodec, ...) is negotiated opaquely.
type BitmapCodecs struct {
	Codecs []BitmapCodec
}

type BitmapCodec struct {
	GUID       [16]byte
	CodecID    uint8
	Properties []byte
}

func (b *BitmapCodecs) Name() string  { return "BitmapCodecsCapabilitySet" }
func (b *BitmapCodecs) Type() SetType { return TypeBitmapCodecs }
func (b *BitmapCodecs) Size() int {
	n := headerSize + 1
	for _, c := range b.Codecs {
		n += 16 + 1 + 2 + len(c.Properties)
	}
	return n
}

func (b *BitmapCodecs) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(b.Name(), dst, b.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeBitmapCodecs, b.Size()-headerSize)
	dst.WriteU8(uint8(len(b.Codecs)))
	for _, c := range b.Codecs {
		dst.WriteSlice(c.GUID[:])
		dst.WriteU8(c.CodecID)
		dst.WriteU16LE(uint16(len(c.Properties)))
		dst.WriteSlice(c.Properties)
	}
	return nil
}

func decodeBitmapCodecsBody(src *cursor.Reader) (*BitmapCodecs, error) {
	b := &BitmapCodecs{}
	if src.Len() < 1 {
		return b, nil
	}
	count := int(src.ReadU8())
	for i := 0; i < count; i++ {
		if src.Len() < 19 {
			break
		}
		guid, _ := src.TryReadSlice(16)
		codecID := src.ReadU8()
		propLen := int(src.ReadU16LE())
		props, err := src.TryReadSlice(propLen)
		if err != nil {
			break
		}
		var c BitmapCodec
		copy(c.GUID[:], guid)
		c.CodecID = codecID
		c.Properties = props
		b.Codecs = append(b.Codecs, c)
	}
	return b, nil
}

// FrameAcknowledge is the Frame Acknowledge Capability Set (MS-RDPBCGR
// 2.2.7.2.8, used with RemoteFX/ZGFX frame pacing).
type FrameAcknowledge struct {
	MaxUnacknowledgedFrameCount uint32
}

func (f *FrameAcknowledge) Name() string  { return "FrameAcknowledgeCapabilitySet" }
func (f *FrameAcknowledge) Type() SetType { return TypeFrameAcknowledge }
func (f *FrameAcknowledge) Size() int     { return headerSize + 4 }

func (f *FrameAcknowledge) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(f.Name(), dst, f.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeFrameAcknowledge, 4)
	dst.WriteU32LE(f.MaxUnacknowledgedFrameCount)
	return nil
}

func decodeFrameAcknowledgeBody(src *cursor.Reader) (*FrameAcknowledge, error) {
	f := &FrameAcknowledge{}
	if src.Len() >= 4 {
		f.MaxUnacknowledgedFrameCount = src.ReadU32LE()
	}
	return f, nil
}

// Rail is the Remote Applications Integrated Locally (RAIL) Capability
// Set (MS-RDPERP 2.2.2.6.1).
type Rail struct {
	RailSupportLevel uint32
}

func (r *Rail) Name() string  { return "RailCapabilitySet" }
func (r *Rail) Type() SetType { return TypeRail }
func (r *Rail) Size() int     { return headerSize + 4 }

func (r *Rail) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(r.Name(), dst, r.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeRail, 4)
	dst.WriteU32LE(r.RailSupportLevel)
	return nil
}

func decodeRailBody(src *cursor.Reader) (*Rail, error) {
	r := &Rail{}
	if src.Len() >= 4 {
		r.RailSupportLevel = src.ReadU32LE()
	}
	return r, nil
}

// WindowList is the Window List Capability Set (MS-RDPERP 2.2.2.6.2).
type WindowList struct {
	WndSupportLevel uint32
	NumIconCaches   uint8
	NumIconCacheEntries uint16
}

func (w *WindowList) Name() string  { return "WindowListCapabilitySet" }
func (w *WindowList) Type() SetType { return TypeWindow }
func (w *WindowList) Size() int     { return headerSize + 7 }

func (w *WindowList) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(w.Name(), dst, w.Size()); err != nil {
		return err
	}
	writeHeader(dst, TypeWindow, 7)
	dst.WriteU32LE(w.WndSupportLevel)
	dst.WriteU8(w.NumIconCaches)
	dst.WriteU16LE(w.NumIconCacheEntries)
	return nil
}

func decodeWindowListBody(src *cursor.Reader) (*WindowList, error) {
	w := &WindowList{}
	if src.Len() >= 4 {
		w.WndSupportLevel = src.ReadU32LE()
	}
	if src.Len() >= 1 {
		w.NumIconCaches = src.ReadU8()
	}
	if src.Len() >= 2 {
		w.NumIconCacheEntries = src.ReadU16LE()
	}
	return w, nil
}
