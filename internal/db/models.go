package db

import "time"

// Venue maps catalog.venues. At most one active row should represent a
// physical destination; merged or non-destination rows stay with
// active=false for audit history, never deleted.
type Venue struct {
	VenueID            int64      `gorm:"column:venue_id;primaryKey;autoIncrement"`
	VenueUUID          string     `gorm:"column:venue_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Name               string     `gorm:"column:name;type:text;not null"`
	Slug               string     `gorm:"column:slug;type:text;not null;unique"`
	Address            *string    `gorm:"column:address;type:text"`
	City               *string    `gorm:"column:city;type:text"`
	State              *string    `gorm:"column:state;type:text"`
	Zip                *string    `gorm:"column:zip;type:text"`
	Latitude           *float64   `gorm:"column:latitude;type:double precision"`
	Longitude          *float64   `gorm:"column:longitude;type:double precision"`
	VenueType          *string    `gorm:"column:venue_type;type:text"`
	Website            *string    `gorm:"column:website;type:text"`
	Phone              *string    `gorm:"column:phone;type:text"`
	Instagram          *string    `gorm:"column:instagram;type:text"`
	Description        *string    `gorm:"column:description;type:text"`
	ImageURL           *string    `gorm:"column:image_url;type:text"`
	Neighborhood       *string    `gorm:"column:neighborhood;type:text"`
	Hours              *string    `gorm:"column:hours;type:text"`
	MenuURL            *string    `gorm:"column:menu_url;type:text"`
	ReservationURL     *string    `gorm:"column:reservation_url;type:text"`
	Vibes              []string   `gorm:"column:vibes;type:jsonb;serializer:json"`
	Active             bool       `gorm:"column:active;type:boolean;not null;default:true"`
	DeactivationReason *string    `gorm:"column:deactivation_reason;type:text"`
	DeactivatedAt      *time.Time `gorm:"column:deactivated_at;type:timestamptz"`
	CreatedAt          time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Venue) TableName() string { return "catalog.venues" }

// Event maps catalog.events. ContentHash is the dedup identity key; the
// unique index on it is what closes the concurrent first-observation race.
type Event struct {
	EventID              int64      `gorm:"column:event_id;primaryKey;autoIncrement"`
	EventUUID            string     `gorm:"column:event_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	SourceID             int64      `gorm:"column:source_id;type:bigint;not null"`
	VenueID              *int64     `gorm:"column:venue_id;type:bigint"`
	Title                string     `gorm:"column:title;type:text;not null"`
	Description          *string    `gorm:"column:description;type:text"`
	StartDate            string     `gorm:"column:start_date;type:date;not null"`
	StartTime            *string    `gorm:"column:start_time;type:time"`
	EndDate              *string    `gorm:"column:end_date;type:date"`
	EndTime              *string    `gorm:"column:end_time;type:time"`
	IsAllDay             bool       `gorm:"column:is_all_day;type:boolean;not null;default:false"`
	Category             *string    `gorm:"column:category;type:text"`
	Subcategory          *string    `gorm:"column:subcategory;type:text"`
	Tags                 []string   `gorm:"column:tags;type:jsonb;serializer:json"`
	PriceMin             *float64   `gorm:"column:price_min;type:numeric"`
	PriceMax             *float64   `gorm:"column:price_max;type:numeric"`
	IsFree               *bool      `gorm:"column:is_free;type:boolean"`
	SourceURL            *string    `gorm:"column:source_url;type:text"`
	TicketURL            *string    `gorm:"column:ticket_url;type:text"`
	ImageURL             *string    `gorm:"column:image_url;type:text"`
	ContentHash          []byte     `gorm:"column:content_hash;type:bytea;not null;unique"`
	SeriesID             *int64     `gorm:"column:series_id;type:bigint"`
	ExtractionConfidence *float64   `gorm:"column:extraction_confidence;type:double precision"`
	DeletedAt            *time.Time `gorm:"column:deleted_at;type:timestamptz"`
	CreatedAt            time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Event) TableName() string { return "catalog.events" }

// EventSeries maps catalog.event_series, a recurring-show grouping. Genre
// and tag fields live on the series so member events do not each carry a
// divergent copy.
type EventSeries struct {
	SeriesID   int64     `gorm:"column:series_id;primaryKey;autoIncrement"`
	SeriesUUID string    `gorm:"column:series_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Slug       string    `gorm:"column:slug;type:text;not null;unique"`
	Title      string    `gorm:"column:title;type:text;not null"`
	SeriesType string    `gorm:"column:series_type;type:text;not null"`
	Frequency  *string   `gorm:"column:frequency;type:text"`
	VenueID    *int64    `gorm:"column:venue_id;type:bigint"`
	Category   *string   `gorm:"column:category;type:text"`
	Tags       []string  `gorm:"column:tags;type:jsonb;serializer:json"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (EventSeries) TableName() string { return "catalog.event_series" }

// Source maps catalog.sources, one row per scraper.
type Source struct {
	SourceID   int64     `gorm:"column:source_id;primaryKey;autoIncrement"`
	SourceUUID string    `gorm:"column:source_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Slug       string    `gorm:"column:slug;type:text;not null;unique"`
	Name       string    `gorm:"column:name;type:text;not null"`
	IsActive   bool      `gorm:"column:is_active;type:boolean;not null;default:true"`
	HealthTags []string  `gorm:"column:health_tags;type:jsonb;serializer:json"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Source) TableName() string { return "catalog.sources" }

// CrawlLog maps catalog.crawl_logs, one row per reconcile batch run.
type CrawlLog struct {
	CrawlLogID    int64      `gorm:"column:crawl_log_id;primaryKey;autoIncrement"`
	CrawlLogUUID  string     `gorm:"column:crawl_log_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	SourceID      int64      `gorm:"column:source_id;type:bigint;not null"`
	StartedAt     time.Time  `gorm:"column:started_at;type:timestamptz;not null"`
	CompletedAt   *time.Time `gorm:"column:completed_at;type:timestamptz"`
	Status        string     `gorm:"column:status;type:text;not null;default:running"`
	EventsFound   int        `gorm:"column:events_found;type:integer;not null;default:0"`
	EventsNew     int        `gorm:"column:events_new;type:integer;not null;default:0"`
	EventsUpdated int        `gorm:"column:events_updated;type:integer;not null;default:0"`
	ErrorMessage  *string    `gorm:"column:error_message;type:text"`
	CreatedAt     time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (CrawlLog) TableName() string { return "catalog.crawl_logs" }

func autoMigrateModels() []any {
	return []any{
		&Venue{},
		&Event{},
		&EventSeries{},
		&Source{},
		&CrawlLog{},
	}
}
