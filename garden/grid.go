// Package garden generates the isometric grid a group's retired plants are
// displayed on. Layouts are procedural but deterministic per group, so every
// member sees the same garden.
package garden

import (
	"math/rand"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"growe/models"
)

// MinSize is the smallest grid edge; grids grow by 2 (staying odd) when a
// garden runs out of plantable cells.
const MinSize = 5

// Seed derives a stable layout seed from a group ID hex string.
func Seed(groupID string) int64 {
	var h int64 = 1469598103934665603
	for i := 0; i < len(groupID); i++ {
		h ^= int64(groupID[i])
		h *= 1099511628211
	}
	return h
}

// Generate builds a size x size grid from the seed. Grass cells are the only
// plantable ones; the center cell is forced to grass so a grid always has
// capacity for at least one plant.
func Generate(seed int64, size int) [][]models.Cell {
	rng := rand.New(rand.NewSource(seed))
	grid := make([][]models.Cell, size)
	for y := range grid {
		grid[y] = make([]models.Cell, size)
		for x := range grid[y] {
			roll := rng.Float64()
			var block string
			switch {
			case roll < 0.55:
				block = models.BlockGrass
			case roll < 0.75:
				block = models.BlockDirt
			case roll < 0.90:
				block = models.BlockStone
			default:
				block = models.BlockWater
			}
			grid[y][x] = models.Cell{
				Block:     block,
				Plantable: block == models.BlockGrass,
			}
		}
	}
	mid := size / 2
	grid[mid][mid] = models.Cell{Block: models.BlockGrass, Plantable: true}
	return grid
}

// PlantableCount returns the number of cells that can hold a plant.
func PlantableCount(grid [][]models.Cell) int {
	n := 0
	for _, row := range grid {
		for _, c := range row {
			if c.Plantable {
				n++
			}
		}
	}
	return n
}

// Place puts a plant image on the first unoccupied plantable cell, scanning
// row-major. Returns false when the grid is full.
func Place(grid [][]models.Cell, image string) bool {
	for y := range grid {
		for x := range grid[y] {
			if grid[y][x].Plantable && !grid[y][x].Planted {
				grid[y][x].Planted = true
				grid[y][x].PlantImage = image
				return true
			}
		}
	}
	return false
}

// AddPlant appends a plant reference, ignoring one already present, so a
// replayed retirement cannot put the same plant in a garden twice.
func AddPlant(plants []primitive.ObjectID, p primitive.ObjectID) []primitive.ObjectID {
	for _, id := range plants {
		if id == p {
			return plants
		}
	}
	return append(plants, p)
}

// Layout builds the smallest grid for the seed that fits all plant images and
// places them. Growing the plant list re-runs the same deterministic layout
// at a larger size, so existing plants simply re-flow.
func Layout(seed int64, images []string) ([][]models.Cell, int) {
	for size := MinSize; ; size += 2 {
		grid := Generate(seed, size)
		if PlantableCount(grid) < len(images) {
			continue
		}
		for _, img := range images {
			Place(grid, img)
		}
		return grid, size
	}
}
