package edm

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry("Test")

	city, err := reg.RegisterEntity("Cities", testCity{})
	require.NoError(t, err)
	assert.Equal(t, "Cities", city.EntitySet)

	t.Run("LookupBySet", func(t *testing.T) {
		et, ok := reg.EntitySet("Cities")
		require.True(t, ok)
		assert.Same(t, city, et)
	})

	t.Run("LookupByTypeIncludesNavigationTargets", func(t *testing.T) {
		_, ok := reg.EntityType("testCity")
		assert.True(t, ok)
		_, ok = reg.EntityType("testCountry")
		assert.True(t, ok)
		_, ok = reg.EntitySet("testCountry")
		assert.False(t, ok)
	})

	t.Run("EnumsAreCollected", func(t *testing.T) {
		enum, ok := reg.EnumType("Test.Color")
		require.True(t, ok)
		member, ok := enum.MemberByName("GREEN")
		require.True(t, ok)
		assert.Equal(t, 2, member.Value)

		_, ok = enum.MemberByValue(9)
		assert.False(t, ok)
	})

	t.Run("DuplicateSet", func(t *testing.T) {
		_, err := reg.RegisterEntity("Cities", testCity{})
		assert.Error(t, err)
	})

	t.Run("NoKey", func(t *testing.T) {
		type keyless struct {
			Name string `json:"name"`
		}
		_, err := reg.RegisterEntity("Keyless", keyless{})
		assert.Error(t, err)
	})

	t.Run("RegisterEnum", func(t *testing.T) {
		reg.RegisterEnum(&EnumType{Name: "Shape", Members: []EnumMember{{Name: "SQUARE", Value: 0}}})
		names := make([]string, 0)
		for _, e := range reg.EnumTypes() {
			names = append(names, e.FullQualifiedName())
		}
		assert.Equal(t, []string{"Test.Color", "Test.Shape"}, names)
	})

	t.Run("ConcurrentReads", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				et, ok := reg.EntitySet("Cities")
				assert.True(t, ok)
				_, ok = et.Property("name")
				assert.True(t, ok)
			}()
		}
		wg.Wait()
	})

	assert.Len(t, reg.EntitySets(), 1)
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2020-01-15")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2020, time.January, 15), d)
	assert.Equal(t, "2020-01-15", d.String())

	_, err = ParseDate("2020-13-40")
	assert.Error(t, err)

	// dia inexistente no mês é rejeitado, não ajustado
	_, err = ParseDate("2020-02-30")
	assert.Error(t, err)
	leap, err := ParseDate("2020-02-29")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2020, time.February, 29), leap)

	value, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2020-01-15", value)

	var scanned Date
	require.NoError(t, scanned.Scan("2021-03-04T00:00:00Z"))
	assert.Equal(t, NewDate(2021, time.March, 4), scanned)
	require.NoError(t, scanned.Scan([]byte("1999-12-31")))
	assert.Equal(t, NewDate(1999, time.December, 31), scanned)
	require.NoError(t, scanned.Scan(time.Date(2000, 2, 29, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, NewDate(2000, time.February, 29), scanned)
	assert.Error(t, scanned.Scan(3.14))

	data, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2020-01-15"`, string(data))

	var decoded Date
	require.NoError(t, decoded.UnmarshalJSON([]byte(`"2019-07-01"`)))
	assert.Equal(t, NewDate(2019, time.July, 1), decoded)
	require.NoError(t, decoded.UnmarshalJSON([]byte(`null`)))
	assert.True(t, decoded.IsZero())
}

func TestEnumMemberOrdinal(t *testing.T) {
	member := EnumMember{Name: "RED", Value: 1}
	assert.Equal(t, int64(1), member.Ordinal())
	assert.Equal(t, "RED", member.String())
}

func TestRegistry_EntityTypeOf(t *testing.T) {
	reg := NewRegistry("Test")
	cities := reg.MustRegisterEntity("Cities", testCity{})

	et, ok := reg.EntityTypeOf(&testCity{})
	require.True(t, ok)
	assert.Same(t, cities, et)

	_, ok = reg.EntityTypeOf(testCountry{})
	assert.True(t, ok)

	_, ok = reg.EntityTypeOf(42)
	assert.False(t, ok)
	_, ok = reg.EntityTypeOf(nil)
	assert.False(t, ok)

	created, ok := et.New().(*testCity)
	require.True(t, ok)
	assert.NotNil(t, created)
}
