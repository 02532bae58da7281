package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/loanpro/lending-system/internal/core/domain"
	"github.com/loanpro/lending-system/internal/core/ports"
)

const collectionApplications = "applications"

// ApplicationRepository implements ports.ApplicationRepository using MongoDB.
// The whole aggregate lives in one document (profile, score breakdown,
// embedded audit log), so single-document atomicity covers the status write
// plus audit append, and a delete removes everything the application owns.
type ApplicationRepository struct {
	col *mongo.Collection
}

func NewApplicationRepository(db *mongo.Database) *ApplicationRepository {
	return &ApplicationRepository{col: db.Collection(collectionApplications)}
}

// Monetary amounts are stored as strings to keep decimal precision exact;
// bson has no decimal type the shopspring package maps onto cleanly.
type mongoApplicant struct {
	FirstName    string    `bson:"first_name"`
	LastName     string    `bson:"last_name"`
	Email        string    `bson:"email"`
	Phone        string    `bson:"phone"`
	DateOfBirth  time.Time `bson:"date_of_birth"`
	Address      string    `bson:"address"`
	City         string    `bson:"city"`
	State        string    `bson:"state"`
	ZipCode      string    `bson:"zip_code"`
	Employment   string    `bson:"employment_category"`
	AnnualIncome string    `bson:"annual_income"`
	LoanAmount   string    `bson:"loan_amount"`
	LoanPurpose  string    `bson:"loan_purpose"`
}

type mongoScore struct {
	AgeScore          int       `bson:"age_score"`
	IncomeScore       int       `bson:"income_score"`
	EmploymentScore   int       `bson:"employment_score"`
	LoanToIncomeScore int       `bson:"loan_to_income_score"`
	TotalScore        int       `bson:"total_score"`
	Percentage        string    `bson:"percentage"`
	Tier              string    `bson:"tier"`
	CheckedAt         time.Time `bson:"checked_at"`
}

type mongoApplication struct {
	ID            primitive.ObjectID    `bson:"_id,omitempty"`
	ApplicationID string                `bson:"application_id"`
	Applicant     mongoApplicant        `bson:"applicant"`
	Status        string                `bson:"status"`
	Score         *mongoScore           `bson:"score,omitempty"`
	AuditLog      []domain.AuditLogEntry `bson:"audit_log"`
	CreatedAt     time.Time             `bson:"created_at"`
	UpdatedAt     time.Time             `bson:"updated_at"`
}

// Create inserts the full aggregate as one document.
func (r *ApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, toDoc(app))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateApplication
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) FindByID(ctx context.Context, applicationID string) (*domain.Application, error) {
	return r.findOne(ctx, bson.M{"application_id": applicationID})
}

func (r *ApplicationRepository) FindByIDAndEmail(ctx context.Context, applicationID, email string) (*domain.Application, error) {
	return r.findOne(ctx, bson.M{"application_id": applicationID, "applicant.email": email})
}

func (r *ApplicationRepository) findOne(ctx context.Context, filter bson.M) (*domain.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoApplication
	err := r.col.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return fromDoc(&doc)
}

// UpdateStatus atomically sets the status and updated_at and appends the audit
// entry. The filter matches on the expected prior status, so a concurrent
// transition that slipped past the per-application lock fails with a conflict
// instead of silently losing an update.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, applicationID string, from, to domain.ApplicationStatus, updatedAt time.Time, entry domain.AuditLogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"application_id": applicationID, "status": string(from)}
	update := bson.M{
		"$set":  bson.M{"status": string(to), "updated_at": updatedAt.UTC()},
		"$push": bson.M{"audit_log": entry},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing application from a prior-status mismatch.
		n, err := r.col.CountDocuments(ctx, bson.M{"application_id": applicationID})
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if n == 0 {
			return domain.ErrApplicationNotFound
		}
		return domain.ErrStatusConflict
	}
	return nil
}

// List returns a page of applications, newest first, and the total match count.
func (r *ApplicationRepository) List(ctx context.Context, filter ports.ListApplicationsFilter) ([]*domain.Application, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: filter.Search, Options: "i"}
		query["$or"] = bson.A{
			bson.M{"applicant.first_name": pattern},
			bson.M{"applicant.last_name": pattern},
			bson.M{"applicant.email": pattern},
			bson.M{"application_id": pattern},
		}
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	defer cursor.Close(ctx)

	var apps []*domain.Application
	for cursor.Next(ctx) {
		var doc mongoApplication
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("decode application: %w", err)
		}
		app, err := fromDoc(&doc)
		if err != nil {
			return nil, 0, err
		}
		apps = append(apps, app)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	return apps, total, nil
}

// Delete removes the application document and with it the embedded score
// breakdown and audit log.
func (r *ApplicationRepository) Delete(ctx context.Context, applicationID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"application_id": applicationID})
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrApplicationNotFound
	}
	return nil
}

func (r *ApplicationRepository) CountByStatus(ctx context.Context) (*ports.StatusCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer cursor.Close(ctx)

	counts := &ports.StatusCounts{}
	for cursor.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("count by status: %w", err)
		}
		counts.Total += row.Count
		switch domain.ApplicationStatus(row.Status) {
		case domain.StatusPending:
			counts.Pending = row.Count
		case domain.StatusUnderReview:
			counts.UnderReview = row.Count
		case domain.StatusApproved:
			counts.Approved = row.Count
		case domain.StatusRejected:
			counts.Rejected = row.Count
		}
	}
	return counts, cursor.Err()
}

func (r *ApplicationRepository) MonthlyCounts(ctx context.Context) ([]ports.MonthlyCount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$created_at"}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("monthly counts: %w", err)
	}
	defer cursor.Close(ctx)

	var out []ports.MonthlyCount
	for cursor.Next(ctx) {
		var row struct {
			Month string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("monthly counts: %w", err)
		}
		out = append(out, ports.MonthlyCount{Month: row.Month, Count: row.Count})
	}
	return out, cursor.Err()
}

// EnsureIndexes creates necessary indexes on the applications collection.
// The unique application_id index backs the ID collision retry in Submit.
func (r *ApplicationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "application_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "applicant.email", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// --- document mapping ---

func toDoc(app *domain.Application) *mongoApplication {
	doc := &mongoApplication{
		ApplicationID: app.ApplicationID,
		Status:        string(app.Status),
		AuditLog:      app.AuditLog,
		CreatedAt:     app.CreatedAt.UTC(),
		UpdatedAt:     app.UpdatedAt.UTC(),
		Applicant: mongoApplicant{
			FirstName:    app.Applicant.FirstName,
			LastName:     app.Applicant.LastName,
			Email:        app.Applicant.Email,
			Phone:        app.Applicant.Phone,
			DateOfBirth:  app.Applicant.DateOfBirth.UTC(),
			Address:      app.Applicant.Address,
			City:         app.Applicant.City,
			State:        app.Applicant.State,
			ZipCode:      app.Applicant.ZipCode,
			Employment:   string(app.Applicant.Employment),
			AnnualIncome: app.Applicant.AnnualIncome.String(),
			LoanAmount:   app.Applicant.LoanAmount.String(),
			LoanPurpose:  app.Applicant.LoanPurpose,
		},
	}
	if app.Score != nil {
		doc.Score = &mongoScore{
			AgeScore:          app.Score.AgeScore,
			IncomeScore:       app.Score.IncomeScore,
			EmploymentScore:   app.Score.EmploymentScore,
			LoanToIncomeScore: app.Score.LoanToIncomeScore,
			TotalScore:        app.Score.TotalScore,
			Percentage:        app.Score.Percentage.String(),
			Tier:              string(app.Score.Tier),
			CheckedAt:         app.Score.CheckedAt.UTC(),
		}
	}
	return doc
}

func fromDoc(doc *mongoApplication) (*domain.Application, error) {
	income, err := decimal.NewFromString(doc.Applicant.AnnualIncome)
	if err != nil {
		return nil, fmt.Errorf("decode annual income %q: %w", doc.Applicant.AnnualIncome, err)
	}
	loan, err := decimal.NewFromString(doc.Applicant.LoanAmount)
	if err != nil {
		return nil, fmt.Errorf("decode loan amount %q: %w", doc.Applicant.LoanAmount, err)
	}

	app := &domain.Application{
		ApplicationID: doc.ApplicationID,
		Status:        domain.ApplicationStatus(doc.Status),
		AuditLog:      doc.AuditLog,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
		Applicant: domain.ApplicantProfile{
			FirstName:    doc.Applicant.FirstName,
			LastName:     doc.Applicant.LastName,
			Email:        doc.Applicant.Email,
			Phone:        doc.Applicant.Phone,
			DateOfBirth:  doc.Applicant.DateOfBirth,
			Address:      doc.Applicant.Address,
			City:         doc.Applicant.City,
			State:        doc.Applicant.State,
			ZipCode:      doc.Applicant.ZipCode,
			Employment:   domain.EmploymentCategory(doc.Applicant.Employment),
			AnnualIncome: income,
			LoanAmount:   loan,
			LoanPurpose:  doc.Applicant.LoanPurpose,
		},
	}
	if doc.Score != nil {
		pct, err := decimal.NewFromString(doc.Score.Percentage)
		if err != nil {
			return nil, fmt.Errorf("decode percentage %q: %w", doc.Score.Percentage, err)
		}
		app.Score = &domain.ScoreBreakdown{
			AgeScore:          doc.Score.AgeScore,
			IncomeScore:       doc.Score.IncomeScore,
			EmploymentScore:   doc.Score.EmploymentScore,
			LoanToIncomeScore: doc.Score.LoanToIncomeScore,
			TotalScore:        doc.Score.TotalScore,
			Percentage:        pct,
			Tier:              domain.EligibilityTier(doc.Score.Tier),
			CheckedAt:         doc.Score.CheckedAt,
		}
	}
	return app, nil
}
