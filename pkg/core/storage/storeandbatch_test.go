package storage

import (
	"bytes"
	"reflect"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dbSetup struct {
	name   string
	create func(testing.TB) Store
}

type dbTestFunction func(*testing.T, Store)

func testStoreGetNonExistent(t *testing.T, s Store) {
	key := []byte("sparse")

	_, err := s.Get(key)
	assert.Equal(t, err, ErrKeyNotFound)
}

func testStorePutGet(t *testing.T, s Store) {
	key, value := []byte("sparse"), []byte("rocks")
	require.NoError(t, s.Put(key, value))

	actual, err := s.Get(key)
	require.NoError(t, err)
	require.Equal(t, value, actual)

	// Overwrite.
	require.NoError(t, s.Put(key, []byte("stones")))
	actual, err = s.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("stones"), actual)
}

func testStorePutChangeSet(t *testing.T, s Store) {
	require.NoError(t, s.Put([]byte("gone"), []byte("soon")))
	require.NoError(t, s.PutChangeSet(map[string][]byte{
		"foo":  []byte("bar"),
		"baz":  []byte("qux"),
		"gone": nil,
	}))

	for k, v := range map[string]string{"foo": "bar", "baz": "qux"} {
		actual, err := s.Get([]byte(k))
		require.NoError(t, err)
		require.Equal(t, []byte(v), actual)
	}
	_, err := s.Get([]byte("gone"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func pushSeekDataSet(t *testing.T, s Store) []KeyValue {
	// Use the same set of kvs to test Seek with different prefix/start values.
	kvs := []KeyValue{
		{[]byte("10"), []byte("bar")},
		{[]byte("11"), []byte("bara")},
		{[]byte("20"), []byte("barb")},
		{[]byte("21"), []byte("barc")},
		{[]byte("22"), []byte("bard")},
		{[]byte("30"), []byte("bare")},
		{[]byte("31"), []byte("barf")},
	}
	up := NewMemCachedStore(s)
	for _, v := range kvs {
		require.NoError(t, up.Put(v.Key, v.Value))
	}
	_, err := up.Persist()
	require.NoError(t, err)
	return kvs
}

func testStoreSeek(t *testing.T, s Store) {
	kvs := pushSeekDataSet(t, s)
	check := func(t *testing.T, prefix, start []byte, expected []KeyValue, cont func(k, v []byte) bool) {
		actual := make([]KeyValue, 0, len(expected))
		s.Seek(SeekRange{Prefix: prefix, Start: start}, func(k, v []byte) bool {
			actual = append(actual, KeyValue{
				Key:   bytes.Clone(k),
				Value: bytes.Clone(v),
			})
			if cont == nil {
				return true
			}
			return cont(k, v)
		})
		assert.Equal(t, expected, actual)
	}

	t.Run("prefix", func(t *testing.T) {
		check(t, []byte("2"), nil, kvs[2:5], nil)
	})
	t.Run("prefix and start", func(t *testing.T) {
		check(t, []byte("2"), []byte("1"), kvs[3:5], nil)
	})
	t.Run("no matching items", func(t *testing.T) {
		check(t, []byte("2"), []byte("3"), []KeyValue{}, nil)
	})
	t.Run("early stop", func(t *testing.T) {
		check(t, []byte("2"), nil, kvs[2:4], func(k, v []byte) bool {
			return string(k) < "21"
		})
	})
	t.Run("empty prefix", func(t *testing.T) {
		check(t, nil, nil, kvs, nil)
	})
}

func TestAllDBs(t *testing.T) {
	var DBs = []dbSetup{
		{"BoltDB", newBoltStoreForTesting},
		{"LevelDB", newLevelDBForTesting},
		{"MemCached", newMemCachedStoreForTesting},
		{"Memory", newMemoryStoreForTesting},
	}
	var tests = []dbTestFunction{
		testStoreGetNonExistent,
		testStorePutGet,
		testStorePutChangeSet,
		testStoreSeek,
	}
	for _, db := range DBs {
		for _, test := range tests {
			s := db.create(t)
			twrapper := func(t *testing.T) {
				test(t, s)
			}
			fname := runtime.FuncForPC(reflect.ValueOf(test).Pointer()).Name()
			t.Run(db.name+"/"+fname, twrapper)
			require.NoError(t, s.Close())
		}
	}
}

func newMemoryStoreForTesting(t testing.TB) Store {
	return NewMemoryStore()
}

func newMemCachedStoreForTesting(t testing.TB) Store {
	return NewMemCachedStore(NewMemoryStore())
}
