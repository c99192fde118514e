package valtype

import "testing"

func TestPredicatesTotal(t *testing.T) {
	cases := []struct {
		name string
		t    Type
		arr  bool
		call bool
		fn   bool
		proc bool
		isI  bool
		isB  bool
	}{
		{"int", Int(), false, false, false, false, true, false},
		{"bool", Bool(), false, false, false, false, false, true},
		{"none", NoneType(), false, false, false, false, false, false},
		{"int array", Int().Array(), true, false, false, false, true, false},
		{"bool array", Bool().Array(), true, false, false, false, false, true},
		{"int function", Int().Callable(), false, true, true, false, false, false},
		{"bool function", Bool().Callable(), false, true, true, false, false, false},
		{"procedure", NoneType().Callable(), false, true, false, true, false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.t.IsArray(); got != c.arr {
				t.Errorf("IsArray() = %v, want %v", got, c.arr)
			}
			if got := c.t.IsCallable(); got != c.call {
				t.Errorf("IsCallable() = %v, want %v", got, c.call)
			}
			if got := c.t.IsFunction(); got != c.fn {
				t.Errorf("IsFunction() = %v, want %v", got, c.fn)
			}
			if got := c.t.IsProcedure(); got != c.proc {
				t.Errorf("IsProcedure() = %v, want %v", got, c.proc)
			}
			if got := c.t.IsInteger(); got != c.isI {
				t.Errorf("IsInteger() = %v, want %v", got, c.isI)
			}
			if got := c.t.IsBoolean(); got != c.isB {
				t.Errorf("IsBoolean() = %v, want %v", got, c.isB)
			}
		})
	}
}

func TestSetReturnTypeIdempotent(t *testing.T) {
	fn := Int().Callable()
	once := fn.SetReturnType()
	twice := once.SetReturnType()
	if !once.Equal(twice) {
		t.Fatalf("SetReturnType not idempotent: %v != %v", once, twice)
	}
	if once.IsCallable() {
		t.Fatalf("SetReturnType left callable bit set: %v", once)
	}
	if !once.Equal(Int()) {
		t.Fatalf("SetReturnType(int function) = %v, want int", once)
	}
}

func TestElemStripsArrayOnly(t *testing.T) {
	arr := Bool().Array()
	elem := arr.Elem()
	if elem.IsArray() {
		t.Fatalf("Elem() left array bit set")
	}
	if !elem.Equal(Bool()) {
		t.Fatalf("Elem() = %v, want bool", elem)
	}
	// Elem on a non-array is a no-op.
	if !Int().Elem().Equal(Int()) {
		t.Fatalf("Elem() on scalar changed the type")
	}
}

func TestStringRendering(t *testing.T) {
	cases := []struct {
		t    Type
		want string
	}{
		{Int(), "int"},
		{Bool(), "bool"},
		{Int().Array(), "int array"},
		{NoneType().Callable(), "procedure"},
		{Int().Callable(), "int function"},
	}
	for _, c := range cases {
		if got := c.t.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestEqualIgnoresOffsetLikeFields(t *testing.T) {
	if !Int().Equal(Int()) {
		t.Fatal("two separately constructed Int() values should be equal")
	}
	if Int().Equal(Bool()) {
		t.Fatal("int should not equal bool")
	}
	if Int().Equal(Int().Array()) {
		t.Fatal("int should not equal int array")
	}
}
