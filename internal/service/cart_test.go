package service

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func menuItem(name string, price int64) MenuItem {
	return MenuItem{Name: name, Price: decimal.NewFromInt(price), Category: "Fast Food"}
}

func TestCartTotal_EmptyCart(t *testing.T) {
	c := NewCart()
	if !c.IsEmpty() {
		t.Fatal("new cart should be empty")
	}
	if !c.Total().Equal(decimal.Zero) {
		t.Fatalf("empty cart total = %s, want 0", c.Total())
	}
}

func TestCartAddItem_InsertionOrder(t *testing.T) {
	c := NewCart()
	c.AddItem(menuItem("Tea", 15))
	c.AddItem(menuItem("Samosa", 20))
	c.AddItem(menuItem("Tea", 15))

	items := c.Items()
	labels := []string{"Tea", "Samosa", "Tea"}
	if len(items) != len(labels) {
		t.Fatalf("got %d items, want %d", len(items), len(labels))
	}
	for i, want := range labels {
		if items[i].Label != want {
			t.Errorf("items[%d].Label = %q, want %q", i, items[i].Label, want)
		}
	}
	if !c.Total().Equal(decimal.NewFromInt(50)) {
		t.Fatalf("total = %s, want 50", c.Total())
	}
}

func TestCartAddThali(t *testing.T) {
	c := NewCart()
	if err := c.AddThali("HALF"); err != nil {
		t.Fatalf("add half thali: %v", err)
	}
	if err := c.AddThali("FULL"); err != nil {
		t.Fatalf("add full thali: %v", err)
	}

	items := c.Items()
	if items[0].Label != "Half Thali" || !items[0].Price.Equal(decimal.NewFromInt(40)) {
		t.Errorf("half thali line = %+v", items[0])
	}
	if items[1].Label != "Full Thali" || !items[1].Price.Equal(decimal.NewFromInt(70)) {
		t.Errorf("full thali line = %+v", items[1])
	}
}

func TestCartAddThali_InvalidOption(t *testing.T) {
	c := NewCart()
	for _, option := range []string{"", "half", "MEDIUM"} {
		if err := c.AddThali(option); err != ErrInvalidThaliOption {
			t.Errorf("AddThali(%q) = %v, want ErrInvalidThaliOption", option, err)
		}
	}
	if !c.IsEmpty() {
		t.Fatal("rejected thali options must not add lines")
	}
}

func TestCartRemoveByLabel_RemovesAllMatches(t *testing.T) {
	c := NewCart()
	c.AddItem(menuItem("Tea", 15))
	c.AddItem(menuItem("Samosa", 20))
	c.AddItem(menuItem("Tea", 15))

	c.RemoveByLabel("Tea")

	items := c.Items()
	if len(items) != 1 || items[0].Label != "Samosa" {
		t.Fatalf("after remove items = %+v, want only Samosa", items)
	}
	if !c.Total().Equal(decimal.NewFromInt(20)) {
		t.Fatalf("total = %s, want 20", c.Total())
	}
}

func TestCartRemoveByLabel_AbsentIsNoop(t *testing.T) {
	c := NewCart()
	c.AddItem(menuItem("Tea", 15))

	c.RemoveByLabel("Coffee")

	if len(c.Items()) != 1 {
		t.Fatal("removing an absent label must not change the cart")
	}
}

// Total must always equal the sum of the currently-present lines, across
// arbitrary add/add-thali/remove sequences.
func TestCartTotal_RandomizedSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	options := []string{"HALF", "FULL"}

	for run := 0; run < 50; run++ {
		c := NewCart()
		model := map[string][]decimal.Decimal{}

		for op := 0; op < 200; op++ {
			switch rng.Intn(3) {
			case 0:
				name := fmt.Sprintf("Item%d", rng.Intn(8))
				price := int64(rng.Intn(100) + 1)
				c.AddItem(menuItem(name, price))
				model[name] = append(model[name], decimal.NewFromInt(price))
			case 1:
				option := options[rng.Intn(2)]
				if err := c.AddThali(option); err != nil {
					t.Fatalf("add thali: %v", err)
				}
				label := "Half Thali"
				price := halfThaliPrice
				if option == "FULL" {
					label, price = "Full Thali", fullThaliPrice
				}
				model[label] = append(model[label], price)
			case 2:
				name := fmt.Sprintf("Item%d", rng.Intn(8))
				c.RemoveByLabel(name)
				delete(model, name)
			}

			want := decimal.Zero
			for _, prices := range model {
				for _, p := range prices {
					want = want.Add(p)
				}
			}
			if !c.Total().Equal(want) {
				t.Fatalf("run %d op %d: total = %s, want %s", run, op, c.Total(), want)
			}
		}
	}
}

func TestCartClear(t *testing.T) {
	c := NewCart()
	c.AddItem(menuItem("Tea", 15))
	c.Clear()
	if !c.IsEmpty() || !c.Total().Equal(decimal.Zero) {
		t.Fatal("cleared cart must be empty with zero total")
	}
}

func TestCartItems_ReturnsCopy(t *testing.T) {
	c := NewCart()
	c.AddItem(menuItem("Tea", 15))

	items := c.Items()
	items[0].Label = "Mutated"

	if c.Items()[0].Label != "Tea" {
		t.Fatal("Items() must return a copy, not the live slice")
	}
}
