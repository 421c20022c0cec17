package facts

import (
	"errors"
	"os"
	"strings"
	"testing"

	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/feature/inventory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registry(t *testing.T) *reconcile.Registry {
	t.Helper()
	reg, err := inventory.NewRegistry(inventory.Config{})
	require.NoError(t, err)
	return reg
}

func TestDecodeAndBuild(t *testing.T) {
	f, err := os.Open("testdata/sample.yaml")
	require.NoError(t, err)
	defer f.Close()

	doc, err := Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "gw1.example.org", doc.Sysname)
	require.Len(t, doc.Records, 9)

	c, err := Build(registry(t), doc, 3)
	require.NoError(t, err)

	subject := c.Subject()
	require.NotNil(t, subject)
	assert.Equal(t, int64(3), subject.ID())
	assert.Equal(t, "y", subject.Str("up"))

	chassis, ok := c.Get(inventory.TypeDevice, "chassis")
	require.True(t, ok)
	assert.Same(t, chassis, subject.Ref("device"))

	module, ok := c.Get(inventory.TypeModule, "slot1")
	require.True(t, ok)
	assert.Same(t, subject, module.Ref("netbox"))
	dev, ok := c.Get(inventory.TypeDevice, "SN-100")
	require.True(t, ok)
	assert.Same(t, dev, module.Ref("device"), "forward references resolve")

	iface, ok := c.Get(inventory.TypeInterface, "1")
	require.True(t, ok)
	n, ok := iface.Int("ifindex")
	require.True(t, ok)
	assert.Equal(t, int64(1), n)

	arp, ok := c.Get(inventory.TypeArp, "10.1.0.9")
	require.True(t, ok)
	assert.Equal(t, int64(77), arp.ID())
	id, ok := arp.RefID("prefix")
	require.True(t, ok)
	assert.Equal(t, int64(5), id)

	assert.Equal(t, 9, c.Len())
}

func TestDecodeJSON(t *testing.T) {
	body := `{"netbox_id": 9, "records": [{"type": "Sensor", "key": "t1", "attrs": {"netbox": {"ref": "Netbox"}, "internal_name": "t1", "precision": 2}}]}`
	doc, err := Decode(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, int64(9), doc.NetboxID)

	c, err := Build(registry(t), doc, doc.NetboxID)
	require.NoError(t, err)
	sensor, ok := c.Get(inventory.TypeSensor, "t1")
	require.True(t, ok)
	p, ok := sensor.Int("precision")
	require.True(t, ok)
	assert.Equal(t, int64(2), p)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("netbox: 1\n"))
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "Unknown type",
			doc:  "records: [{type: Toaster, key: a}]",
			want: "Toaster",
		},
		{
			name: "Unknown attribute",
			doc:  "records: [{type: Device, key: a, attrs: {colour: red}}]",
			want: `Device has no attribute "colour"`,
		},
		{
			name: "Dangling reference",
			doc:  "records: [{type: Module, key: a, attrs: {device: {ref: Device, key: nope}}}]",
			want: `no staged Device with key "nope"`,
		},
		{
			name: "Wrong reference type",
			doc:  "records: [{type: Module, key: a, attrs: {device: {ref: Netbox}}}]",
			want: `must reference Device, not "Netbox"`,
		},
		{
			name: "Scalar for reference",
			doc:  "records: [{type: Module, key: a, attrs: {device: 5}}]",
			want: "reference must be",
		},
		{
			name: "Reference for scalar",
			doc:  "records: [{type: Module, key: a, attrs: {name: {id: 5}}}]",
			want: "reference given for a plain attribute",
		},
		{
			name: "Bad canonical id",
			doc:  "records: [{type: Module, key: a, attrs: {device: {id: -1}}}]",
			want: "invalid id -1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode(strings.NewReader(tt.doc))
			require.NoError(t, err)
			_, err = Build(registry(t), doc, 1)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDocument))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildRequiresNetbox(t *testing.T) {
	_, err := Build(registry(t), &Document{}, 0)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestBuildNullReference(t *testing.T) {
	doc, err := Decode(strings.NewReader("records: [{type: Module, key: a, attrs: {device: null, name: a}}]"))
	require.NoError(t, err)
	c, err := Build(registry(t), doc, 1)
	require.NoError(t, err)
	module, _ := c.Get(inventory.TypeModule, "a")
	assert.True(t, module.Touched("device"))
	assert.Nil(t, module.Get("device"))
}
