// File: database/repository/calendar/calendar_mongo.go
package calendarRepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dentaflow/database"
	"dentaflow/models"
)

// appointmentDoc is the stored shape of one committed appointment.
type appointmentDoc struct {
	EventID      string    `bson:"_id"`
	Resource     string    `bson:"resource"`
	PatientPhone string    `bson:"patientPhone"`
	PatientName  string    `bson:"patientName"`
	Treatment    string    `bson:"treatment"`
	Start        time.Time `bson:"start"`
	End          time.Time `bson:"end"`
	CreatedAt    time.Time `bson:"createdAt"`
}

// MongoCalendarRepo is the local calendar mode: appointments live in a Mongo
// collection instead of an external calendar service. It satisfies the same
// provider contract as the Google implementation.
type MongoCalendarRepo struct {
	coll *mongo.Collection
}

// NewMongoCalendarRepo returns a repo over the default appointments collection.
func NewMongoCalendarRepo() *MongoCalendarRepo {
	return &MongoCalendarRepo{coll: database.Collection("appointments")}
}

// NewMongoCalendarRepoWithCollection is used by tests.
func NewMongoCalendarRepoWithCollection(coll *mongo.Collection) *MongoCalendarRepo {
	return &MongoCalendarRepo{coll: coll}
}

func (r *MongoCalendarRepo) BusyIntervals(ctx context.Context, resource string, from, to time.Time) ([]models.BusyInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"resource": resource,
		"start":    bson.M{"$lt": to},
		"end":      bson.M{"$gt": from},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []appointmentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	intervals := make([]models.BusyInterval, 0, len(docs))
	for _, d := range docs {
		intervals = append(intervals, models.BusyInterval{Start: d.Start, End: d.End})
	}
	return intervals, nil
}

func (r *MongoCalendarRepo) CreateEvent(ctx context.Context, resource string, booking models.Booking) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc := appointmentDoc{
		EventID:      uuid.New().String(),
		Resource:     resource,
		PatientPhone: booking.PatientPhone,
		PatientName:  booking.PatientName,
		Treatment:    booking.Treatment,
		Start:        booking.Start,
		End:          booking.End,
		CreatedAt:    time.Now(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.EventID, nil
}

func (r *MongoCalendarRepo) DeleteEvent(ctx context.Context, resource, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// A zero delete count means the event was already gone; deletion is
	// idempotent either way.
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": eventID, "resource": resource})
	return err
}

func (r *MongoCalendarRepo) FindBookingByPhone(ctx context.Context, phone string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"patientPhone": phone,
		"start":        bson.M{"$gte": time.Now()},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "start", Value: 1}})

	var doc appointmentDoc
	err := r.coll.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &models.Booking{
		PatientPhone:    doc.PatientPhone,
		PatientName:     doc.PatientName,
		Resource:        doc.Resource,
		Treatment:       doc.Treatment,
		Start:           doc.Start,
		End:             doc.End,
		ExternalEventID: doc.EventID,
		CalendarID:      doc.Resource,
	}, nil
}
