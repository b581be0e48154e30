package sdmmc

import (
	"testing"

	"github.com/kavionic/pados/vfs"
)

func newTestDriver(t *testing.T) (*Driver, *SimController) {
	t.Helper()
	ctl := NewSimController()
	reg := vfs.NewRegistry()
	d := New("sd0", ctl, reg, nil)
	return d, ctl
}

func TestInitializeSDCard(t *testing.T) {
	d, ctl := newTestDriver(t)
	ctl.InsertSD(204800) // scenario A shape: plenty of 512-byte sectors

	if err := d.initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	card := d.Card()
	if !card.Type.Has(TypeSD) || !card.Type.Has(TypeHighCapacity) {
		t.Fatalf("expected SD+HC card type, got %v", card.Type)
	}
	if card.SectorCount == 0 {
		t.Fatalf("expected non-zero sector count")
	}
}

func TestInitializeMMCFallback(t *testing.T) {
	d, ctl := newTestDriver(t)
	ctl.InsertMMC(8388608)

	if err := d.initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	card := d.Card()
	if !card.Type.Has(TypeMMC) || !card.Type.Has(TypeHighCapacity) {
		t.Fatalf("expected MMC+HC card type, got %v", card.Type)
	}
	if card.SectorCount != 8388608 {
		t.Fatalf("expected sector count from EXT_CSD, got %d", card.SectorCount)
	}
}

func TestInitializeSDIOComboSetsSubtypeAndRaisesBusWidth(t *testing.T) {
	d, ctl := newTestDriver(t)
	ctl.InsertSDIO(true, 2048)

	if err := d.initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	card := d.Card()
	if !card.Type.Has(TypeSDIO) || !card.Type.Has(TypeCombo) {
		t.Fatalf("expected SDIO+Combo card type, got %v", card.Type)
	}
	if !card.Type.Has(TypeSD) {
		t.Fatalf("expected the combo card's memory half to identify as SD, got %v", card.Type)
	}
	if card.BusWidth != 4 {
		t.Fatalf("expected 4-bit bus width raised via CCCR, got %d", card.BusWidth)
	}

	v, err := ctl.SendCommand(Command{Index: cmdIODirect, Arg: sdioDirectArg(false, sdioFnCIA, cccrBusInterface, 0)}, nil)
	if err != nil {
		t.Fatalf("read back CCCR bus-interface register: %v", err)
	}
	if v[0]&cccrBusWidth4Bit == 0 {
		t.Fatalf("expected CCCR bus-interface 4-bit flag set after init, got %#x", v[0])
	}
}

func TestInitializePureSDIOSkipsMemoryIdentification(t *testing.T) {
	d, ctl := newTestDriver(t)
	ctl.InsertSDIO(false, 0)

	if err := d.initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	card := d.Card()
	if !card.Type.Has(TypeSDIO) || card.Type.Has(TypeCombo) {
		t.Fatalf("expected pure SDIO without the combo bit, got %v", card.Type)
	}
	if card.Type.Has(TypeSD) || card.Type.Has(TypeMMC) {
		t.Fatalf("expected no memory-card type for a pure SDIO card, got %v", card.Type)
	}
	if card.SectorCount != 0 {
		t.Fatalf("expected zero sector count for a pure SDIO card, got %d", card.SectorCount)
	}
}

func TestInitializeSDCardDecodesSCRVersion(t *testing.T) {
	d, ctl := newTestDriver(t)
	ctl.InsertSD(2048)

	if err := d.initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if d.Card().Version != VersionSD1_0 {
		t.Fatalf("expected the simulated all-zero SCR to decode as SD 1.0, got %v", d.Card().Version)
	}
}

func TestBlockIORoundTrip(t *testing.T) {
	d, ctl := newTestDriver(t)
	ctl.InsertSD(2048)
	if err := d.initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	d.mu.Lock()
	d.card.State = StateReady
	d.mu.Unlock()

	payload := make([]byte, BlockSize*2)
	for i := range payload {
		payload[i] = byte(i)
	}

	if _, err := d.writeAt(payload, BlockSize*4); err != nil {
		t.Fatalf("write: %v", err)
	}

	readBack := make([]byte, BlockSize*2)
	if _, err := d.readAt(readBack, BlockSize*4); err != nil {
		t.Fatalf("read: %v", err)
	}

	for i := range payload {
		if payload[i] != readBack[i] {
			t.Fatalf("byte %d mismatch: wrote %x read %x", i, payload[i], readBack[i])
		}
	}
}

func TestBlockIORejectsMisalignment(t *testing.T) {
	d, ctl := newTestDriver(t)
	ctl.InsertSD(2048)
	d.initialize()
	d.mu.Lock()
	d.card.State = StateReady
	d.mu.Unlock()

	if _, err := d.readAt(make([]byte, 10), 0); err == nil {
		t.Fatalf("expected InvalidArg for misaligned length")
	}
	if _, err := d.readAt(make([]byte, BlockSize), 5); err == nil {
		t.Fatalf("expected InvalidArg for misaligned offset")
	}
}

func TestBlockIORetriesOnTransientError(t *testing.T) {
	d, ctl := newTestDriver(t)
	ctl.InsertSD(2048)
	d.initialize()
	d.mu.Lock()
	d.card.State = StateReady
	d.mu.Unlock()

	ctl.FailNextN = 3 // fewer than maxBlockIORetries

	buf := make([]byte, BlockSize)
	if _, err := d.readAt(buf, 0); err != nil {
		t.Fatalf("expected retries to recover from transient errors: %v", err)
	}
}

func TestPartitionScanPublishesNodes(t *testing.T) {
	d, ctl := newTestDriver(t)
	ctl.InsertSD(204800)
	if err := d.initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	d.mu.Lock()
	d.card.State = StateReady
	d.mu.Unlock()

	// Write a minimal MBR with one partition at sector 2048, size 1000.
	sector0 := make([]byte, BlockSize)
	sector0[446+4] = 0x83
	putLE32(sector0[446+8:], 2048)
	putLE32(sector0[446+12:], 1000)
	sector0[510] = 0x55
	sector0[511] = 0xaa

	if _, err := d.writeAt(sector0, 0); err != nil {
		t.Fatalf("seed sector 0: %v", err)
	}

	d.registerRaw()
	if err := d.RereadPartitionTable(false); err != nil {
		t.Fatalf("reread partition table: %v", err)
	}

	if _, _, ok := d.registry.Lookup("/dev/disk/0"); !ok {
		t.Fatalf("expected /dev/disk/0 to be published")
	}
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
