package garden

import (
	"fmt"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"growe/models"
)

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(42, 7)
	b := Generate(42, 7)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed and size produced different grids")
	}
	c := Generate(43, 7)
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds produced identical grids")
	}
}

func TestGenerateOnlyGrassPlantable(t *testing.T) {
	grid := Generate(7, 9)
	for _, row := range grid {
		for _, cell := range row {
			if cell.Plantable != (cell.Block == models.BlockGrass) {
				t.Fatalf("cell %+v: plantable must mean grass", cell)
			}
		}
	}
}

func TestGenerateCenterAlwaysPlantable(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		grid := Generate(seed, MinSize)
		mid := MinSize / 2
		if !grid[mid][mid].Plantable {
			t.Fatalf("seed %d: center cell not plantable", seed)
		}
	}
}

func TestPlaceFillsPlantableCellsOnly(t *testing.T) {
	grid := Generate(11, 5)
	capacity := PlantableCount(grid)

	placed := 0
	for Place(grid, "plant.svg") {
		placed++
		if placed > capacity {
			t.Fatal("placed more plants than plantable cells")
		}
	}
	if placed != capacity {
		t.Errorf("placed %d plants, capacity is %d", placed, capacity)
	}
	for _, row := range grid {
		for _, cell := range row {
			if cell.Planted && !cell.Plantable {
				t.Fatal("plant placed on a non-plantable cell")
			}
		}
	}
}

func TestLayoutFitsAllPlants(t *testing.T) {
	images := make([]string, 30)
	for i := range images {
		images[i] = fmt.Sprintf("plant-%d.svg", i)
	}

	seed := Seed("64f1c0ffee")
	grid, size := Layout(seed, images)

	if size < MinSize || size%2 == 0 {
		t.Errorf("layout size %d: want odd size >= %d", size, MinSize)
	}
	planted := 0
	for _, row := range grid {
		for _, cell := range row {
			if cell.Planted {
				planted++
			}
		}
	}
	if planted != len(images) {
		t.Errorf("layout planted %d cells, want %d", planted, len(images))
	}
	if PlantableCount(grid) < len(images) {
		t.Error("layout chose a grid smaller than the plant count")
	}
}

func TestLayoutGrowsWithPlantCount(t *testing.T) {
	seed := Seed("abc123")
	_, small := Layout(seed, make([]string, 1))
	_, big := Layout(seed, make([]string, 60))
	if big <= small {
		t.Errorf("60 plants laid out on size %d, 1 plant on size %d; expected growth", big, small)
	}
}

func TestAddPlantIgnoresDuplicates(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	plants := AddPlant(nil, a)
	plants = AddPlant(plants, b)
	plants = AddPlant(plants, a)

	if len(plants) != 2 {
		t.Fatalf("garden holds %d plants after a duplicate add, want 2", len(plants))
	}
	if plants[0] != a || plants[1] != b {
		t.Error("duplicate add reordered the plant list")
	}
}

func TestSeedStable(t *testing.T) {
	if Seed("group-a") != Seed("group-a") {
		t.Error("seed not stable for equal input")
	}
	if Seed("group-a") == Seed("group-b") {
		t.Error("distinct groups collided on seed")
	}
}
