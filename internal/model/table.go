package model

import "time"

// Table describes a physical table in a restaurant.  Tables are
// uniquely identified by their restaurant, floor label and table
// number.  The available flag is toggled manually by restaurant
// staff; it is deliberately independent of any booking record.
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – restaurant to which this table belongs.
//  Floor        – floor label (e.g. "Ground", "Mezzanine").
//  TableNumber  – number of the table within the floor.
//  Capacity     – seating capacity.
//  Available    – whether staff currently mark the table available.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Table struct {
	ID           uint64    // tables.id
	RestaurantID uint64    // tables.restaurant_id
	Floor        string    // tables.floor
	TableNumber  uint32    // tables.table_number
	Capacity     uint32    // tables.capacity
	Available    bool      // tables.available
	CreatedAt    time.Time // tables.created_at
	UpdatedAt    time.Time // tables.updated_at
}
