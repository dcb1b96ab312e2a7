package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"orusledger/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	colAccounts  = "ledger_accounts"
	colEntries   = "ledger_entries"
	colReferrals = "ledger_referrals"

	// IllegalOperation: "Transaction numbers are only allowed on a replica
	// set member or mongos".
	mongoCodeIllegalOperation = 20
)

var _ LedgerRepository = (*mongoLedgerRepository)(nil)

type mongoLedgerRepository struct {
	client        *mongo.Client
	db            *mongo.Database
	transactional bool
	inTx          bool

	topology *topologyProbe
}

// topologyProbe remembers whether the deployment can run transactions.
// Standalone mongod cannot; replica set members and mongos can.
type topologyProbe struct {
	mu       sync.Mutex
	known    bool
	supports bool
}

// NewMongoLedgerRepository returns a LedgerRepository backed by MongoDB.
func NewMongoLedgerRepository(client *mongo.Client, database string, transactional bool) LedgerRepository {
	return &mongoLedgerRepository{
		client:        client,
		db:            client.Database(database),
		transactional: transactional,
		topology:      &topologyProbe{},
	}
}

// MigrateMongo creates the ledger indexes.
func MigrateMongo(ctx context.Context, db *mongo.Database) error {
	for col, indexes := range mongoIndexes() {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("ledger/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

func mongoIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAccounts: {
			{
				Keys:    bson.D{{Key: "referral_code", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colEntries: {
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "currency", Value: 1}, {Key: "direction", Value: 1}}},
		},
		colReferrals: {
			{
				Keys:    bson.D{{Key: "referee_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "referrer_id", Value: 1}}},
			{Keys: bson.D{{Key: "code", Value: 1}, {Key: "referee_id", Value: 1}}},
		},
	}
}

func (r *mongoLedgerRepository) accounts() *mongo.Collection  { return r.db.Collection(colAccounts) }
func (r *mongoLedgerRepository) entries() *mongo.Collection   { return r.db.Collection(colEntries) }
func (r *mongoLedgerRepository) referrals() *mongo.Collection { return r.db.Collection(colReferrals) }

func (r *mongoLedgerRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	_, err := r.accounts().InsertOne(ctx, toAccountDoc(account))
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		if _, gerr := r.GetAccount(ctx, account.ID); gerr == nil {
			return ErrDuplicateAccount
		}
		return ErrDuplicateCode
	}
	return fmt.Errorf("ledger/mongo: create account: %w", err)
}

func (r *mongoLedgerRepository) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return r.findAccount(ctx, bson.M{"_id": id})
}

func (r *mongoLedgerRepository) GetAccountByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	return r.findAccount(ctx, bson.M{"referral_code": code})
}

func (r *mongoLedgerRepository) findAccount(ctx context.Context, filter bson.M) (*models.Account, error) {
	var doc accountDoc
	if err := r.accounts().FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get account: %w", err)
	}
	return fromAccountDoc(&doc), nil
}

func (r *mongoLedgerRepository) IncrementBalance(ctx context.Context, accountID string, currency models.Currency, amount int64) (*models.Account, error) {
	account, err := r.incBalance(ctx, bson.M{"_id": accountID}, currency.BalanceColumn(), amount)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAccountNotFound
	}
	return account, err
}

func (r *mongoLedgerRepository) DecrementBalance(ctx context.Context, accountID string, currency models.Currency, amount int64) (*models.Account, error) {
	field := currency.BalanceColumn()
	filter := bson.M{"_id": accountID, field: bson.M{"$gte": amount}}
	account, err := r.incBalance(ctx, filter, field, -amount)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBalanceTooLow
	}
	return account, err
}

func (r *mongoLedgerRepository) incBalance(ctx context.Context, filter bson.M, field string, delta int64) (*models.Account, error) {
	update := bson.M{
		"$inc": bson.M{field: delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc accountDoc
	if err := r.accounts().FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		return nil, fmt.Errorf("ledger/mongo: update %s: %w", field, err)
	}
	return fromAccountDoc(&doc), nil
}

func (r *mongoLedgerRepository) AppendEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == "" || entry.Amount <= 0 {
		return ErrInvalidEntry
	}
	if _, err := r.entries().InsertOne(ctx, toEntryDoc(entry)); err != nil {
		return fmt.Errorf("ledger/mongo: append entry: %w", err)
	}
	return nil
}

func entryFilter(accountID string, filter models.EntryFilter) bson.M {
	f := bson.M{"account_id": accountID}
	if filter.Direction != "" {
		f["direction"] = string(filter.Direction)
	}
	if filter.Currency != "" {
		f["currency"] = string(filter.Currency)
	}
	return f
}

func (r *mongoLedgerRepository) ListEntries(ctx context.Context, accountID string, filter models.EntryFilter, limit, offset int) ([]models.LedgerEntry, int64, error) {
	f := entryFilter(accountID, filter)

	total, err := r.entries().CountDocuments(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("ledger/mongo: count entries: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.entries().Find(ctx, f, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("ledger/mongo: list entries: %w", err)
	}
	var docs []entryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("ledger/mongo: decode entries: %w", err)
	}

	entries := make([]models.LedgerEntry, 0, len(docs))
	for i := range docs {
		entries = append(entries, fromEntryDoc(&docs[i]))
	}
	return entries, total, nil
}

func (r *mongoLedgerRepository) SumEntries(ctx context.Context, accountID string, currency models.Currency) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"account_id": accountID, "currency": string(currency)}}},
		{{Key: "$group", Value: bson.M{
			"_id": nil,
			"total": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$direction", string(models.DirectionCredit)}},
				"$amount",
				bson.M{"$multiply": bson.A{"$amount", -1}},
			}}},
		}}},
	}
	cursor, err := r.entries().Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("ledger/mongo: sum entries: %w", err)
	}
	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("ledger/mongo: decode sum: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (r *mongoLedgerRepository) CreateReferral(ctx context.Context, referral *models.Referral) error {
	if _, err := r.referrals().InsertOne(ctx, toReferralDoc(referral)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateReferral
		}
		return fmt.Errorf("ledger/mongo: create referral: %w", err)
	}
	return nil
}

func (r *mongoLedgerRepository) GetReferralByReferee(ctx context.Context, refereeID string) (*models.Referral, error) {
	return r.findReferral(ctx, bson.M{"referee_id": refereeID})
}

func (r *mongoLedgerRepository) GetReferralByCodeAndReferee(ctx context.Context, code, refereeID string) (*models.Referral, error) {
	return r.findReferral(ctx, bson.M{"code": code, "referee_id": refereeID})
}

func (r *mongoLedgerRepository) findReferral(ctx context.Context, filter bson.M) (*models.Referral, error) {
	var doc referralDoc
	if err := r.referrals().FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReferralNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get referral: %w", err)
	}
	return fromReferralDoc(&doc), nil
}

func (r *mongoLedgerRepository) CountReferralsByReferrer(ctx context.Context, referrerID string) (int64, error) {
	count, err := r.referrals().CountDocuments(ctx, bson.M{"referrer_id": referrerID})
	if err != nil {
		return 0, fmt.Errorf("ledger/mongo: count referrals: %w", err)
	}
	return count, nil
}

func (r *mongoLedgerRepository) ExecuteInTransaction(ctx context.Context, fn func(ctx context.Context, tx LedgerRepository) error) error {
	if !r.transactional {
		return ErrTransactionUnsupported
	}
	if r.inTx {
		return fn(ctx, r)
	}

	supported, err := r.supportsTransactions(ctx)
	if err != nil {
		return err
	}
	if !supported {
		return ErrTransactionUnsupported
	}

	session, err := r.client.StartSession()
	if err != nil {
		if isTransactionUnsupported(err) {
			return ErrTransactionUnsupported
		}
		return fmt.Errorf("ledger/mongo: start session: %w", err)
	}
	defer session.EndSession(ctx)

	txRepo := &mongoLedgerRepository{
		client:        r.client,
		db:            r.db,
		transactional: true,
		inTx:          true,
		topology:      r.topology,
	}
	_, err = session.WithTransaction(ctx, func(sc context.Context) (interface{}, error) {
		return nil, fn(sc, txRepo)
	})
	if err != nil && isTransactionUnsupported(err) {
		r.topology.set(false)
		return ErrTransactionUnsupported
	}
	return err
}

func (r *mongoLedgerRepository) supportsTransactions(ctx context.Context) (bool, error) {
	if supports, known := r.topology.get(); known {
		return supports, nil
	}

	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	if err := r.client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return false, fmt.Errorf("ledger/mongo: probe topology: %w", err)
	}
	supports := hello.SetName != "" || hello.Msg == "isdbgrid"
	r.topology.set(supports)
	return supports, nil
}

func (p *topologyProbe) get() (supports, known bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.supports, p.known
}

func (p *topologyProbe) set(supports bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.supports, p.known = supports, true
}

// isTransactionUnsupported classifies server errors by code, never by text.
func isTransactionUnsupported(err error) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorCode(mongoCodeIllegalOperation)
	}
	return false
}
