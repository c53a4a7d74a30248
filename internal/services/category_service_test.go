package services

import (
	"context"
	"sync"
	"testing"

	"finledger/internal/models"
	"finledger/internal/pagination"
	"finledger/internal/testutil"
)

func countReserved(t *testing.T, svc CategoryServicer, userID string, categoryType models.CategoryType) int {
	t.Helper()
	cats, err := svc.ListByTypeAndUser(context.Background(), userID, categoryType, true)
	testutil.AssertNoError(t, err)

	n := 0
	for _, c := range cats {
		if c.IsReserved() {
			n++
		}
	}
	return n
}

func TestEnsureDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("creates_both_reserved", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)

		testutil.AssertNoError(t, svc.EnsureDefaults(ctx, user.ID))

		if n := countReserved(t, svc, user.ID, models.CategoryTypeIncome); n != 1 {
			t.Errorf("expected 1 All Income, got %d", n)
		}
		if n := countReserved(t, svc, user.ID, models.CategoryTypeExpense); n != 1 {
			t.Errorf("expected 1 All Expenses, got %d", n)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)

		for i := 0; i < 3; i++ {
			testutil.AssertNoError(t, svc.EnsureDefaults(ctx, user.ID))
		}

		var count int64
		db.Model(&models.Category{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 2 {
			t.Errorf("expected 2 categories, got %d", count)
		}
	})

	t.Run("concurrent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- svc.EnsureDefaults(ctx, user.ID)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			testutil.AssertNoError(t, err)
		}

		if n := countReserved(t, svc, user.ID, models.CategoryTypeIncome); n != 1 {
			t.Errorf("expected 1 All Income, got %d", n)
		}
		if n := countReserved(t, svc, user.ID, models.CategoryTypeExpense); n != 1 {
			t.Errorf("expected 1 All Expenses, got %d", n)
		}
	})

	t.Run("fills_only_missing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)
		existing := testutil.CreateTestCategory(t, db, user.ID, models.ReservedIncomeName, models.CategoryTypeIncome)

		testutil.AssertNoError(t, svc.EnsureDefaults(ctx, user.ID))

		cats, err := svc.ListByTypeAndUser(ctx, user.ID, models.CategoryTypeIncome, true)
		testutil.AssertNoError(t, err)
		if len(cats) != 1 || cats[0].ID != existing.ID {
			t.Errorf("expected the existing All Income to be kept, got %+v", cats)
		}
	})

	t.Run("per_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		alice := testutil.CreateTestUser(t, db)
		bob := testutil.CreateTestUser(t, db)

		testutil.AssertNoError(t, svc.EnsureDefaults(ctx, alice.ID))

		if n := countReserved(t, svc, bob.ID, models.CategoryTypeIncome); n != 0 {
			t.Errorf("expected no reserved categories for bob, got %d", n)
		}
	})
}

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)

		cat, err := svc.CreateCategory(ctx, user.ID, "  Groceries ", models.CategoryTypeExpense)
		testutil.AssertNoError(t, err)

		if cat.ID == "" {
			t.Fatal("expected category ID")
		}
		if cat.Name != "Groceries" {
			t.Errorf("expected name Groceries, got %q", cat.Name)
		}
		if cat.Type != models.CategoryTypeExpense {
			t.Errorf("expected type expense, got %s", cat.Type)
		}
		if cat.UserID != user.ID {
			t.Errorf("expected owner %s, got %s", user.ID, cat.UserID)
		}
	})

	t.Run("duplicates_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)

		first, err := svc.CreateCategory(ctx, user.ID, "Food", models.CategoryTypeExpense)
		testutil.AssertNoError(t, err)
		second, err := svc.CreateCategory(ctx, user.ID, "Food", models.CategoryTypeExpense)
		testutil.AssertNoError(t, err)

		if first.ID == second.ID {
			t.Error("expected distinct ids")
		}
		if !first.Equivalent(*second) {
			t.Error("expected the two categories to be equivalent")
		}
	})

	t.Run("blank_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(ctx, user.ID, "   ", models.CategoryTypeExpense)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(ctx, user.ID, "Gifts", models.CategoryType("transfer"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("reserved_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(ctx, user.ID, models.ReservedExpenseName, models.CategoryTypeExpense)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("reserved_name_of_other_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)
		testutil.AssertNoError(t, svc.EnsureDefaults(ctx, user.ID))

		cat, err := svc.CreateCategory(ctx, user.ID, models.ReservedIncomeName, models.CategoryTypeExpense)
		testutil.AssertNoError(t, err)
		if cat.IsReserved() {
			t.Error("expected an ordinary expense category")
		}

		_, err = svc.CreateCategory(ctx, user.ID, models.ReservedExpenseName, models.CategoryTypeIncome)
		testutil.AssertNoError(t, err)
		if n := countReserved(t, svc, user.ID, models.CategoryTypeExpense); n != 1 {
			t.Errorf("expected 1 reserved expense category, got %d", n)
		}
	})

	t.Run("second_live_catch_all_rejected_by_store", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)
		testutil.AssertNoError(t, svc.EnsureDefaults(ctx, user.ID))

		dup := &models.Category{UserID: user.ID, Name: models.ReservedIncomeName, Type: models.CategoryTypeIncome}
		if err := db.Create(dup).Error; err == nil {
			t.Fatal("expected unique violation for a second All Income")
		}
	})
}

func TestRenameCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, "Food", models.CategoryTypeExpense)

		renamed, err := svc.RenameCategory(ctx, user.ID, cat.ID, "Groceries")
		testutil.AssertNoError(t, err)
		if renamed.Name != "Groceries" {
			t.Errorf("expected Groceries, got %s", renamed.Name)
		}

		fetched, err := svc.GetCategoryByID(ctx, user.ID, cat.ID)
		testutil.AssertNoError(t, err)
		if fetched.Name != "Groceries" || fetched.Type != models.CategoryTypeExpense {
			t.Errorf("unexpected stored category %+v", fetched)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.RenameCategory(ctx, user.ID, "0190b7a0-0000-7000-8000-000000000000", "X")
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("other_users_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, owner.ID, "Food", models.CategoryTypeExpense)

		_, err := svc.RenameCategory(ctx, other.ID, cat.ID, "Mine")
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("blank_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, "Food", models.CategoryTypeExpense)

		_, err := svc.RenameCategory(ctx, user.ID, cat.ID, " ")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("to_reserved_name_of_other_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)
		testutil.AssertNoError(t, svc.EnsureDefaults(ctx, user.ID))
		cat := testutil.CreateTestCategory(t, db, user.ID, "Food", models.CategoryTypeExpense)

		renamed, err := svc.RenameCategory(ctx, user.ID, cat.ID, models.ReservedIncomeName)
		testutil.AssertNoError(t, err)
		if renamed.Name != models.ReservedIncomeName || renamed.Type != models.CategoryTypeExpense {
			t.Errorf("unexpected renamed category %+v", renamed)
		}
	})
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("removes_category_and_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, "Food", models.CategoryTypeExpense)
		testutil.CreateTestTransaction(t, db, cat.ID, "Bread", "2.00", testutil.Date(2024, 1, 2))

		testutil.AssertNoError(t, svc.DeleteCategory(ctx, user.ID, cat.ID))

		_, err := svc.GetCategoryByID(ctx, user.ID, cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")

		var count int64
		db.Model(&models.Transaction{}).Where("category_id = ?", cat.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected transactions to be removed, found %d", count)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)

		err := svc.DeleteCategory(ctx, user.ID, "0190b7a0-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestListByTypeAndUser(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db, nil)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	testutil.AssertNoError(t, svc.EnsureDefaults(ctx, user.ID))
	testutil.CreateTestCategory(t, db, user.ID, "Rent", models.CategoryTypeExpense)
	testutil.CreateTestCategory(t, db, user.ID, "Groceries", models.CategoryTypeExpense)
	testutil.CreateTestCategory(t, db, user.ID, "Salary", models.CategoryTypeIncome)
	testutil.CreateTestCategory(t, db, other.ID, "Bills", models.CategoryTypeExpense)

	t.Run("with_reserved", func(t *testing.T) {
		cats, err := svc.ListByTypeAndUser(ctx, user.ID, models.CategoryTypeExpense, true)
		testutil.AssertNoError(t, err)

		want := []string{models.ReservedExpenseName, "Groceries", "Rent"}
		if len(cats) != len(want) {
			t.Fatalf("expected %d categories, got %d", len(want), len(cats))
		}
		for i, name := range want {
			if cats[i].Name != name {
				t.Errorf("position %d: expected %s, got %s", i, name, cats[i].Name)
			}
		}
	})

	t.Run("editable_only", func(t *testing.T) {
		cats, err := svc.ListByTypeAndUser(ctx, user.ID, models.CategoryTypeExpense, false)
		testutil.AssertNoError(t, err)

		for _, c := range cats {
			if c.IsReserved() {
				t.Errorf("did not expect reserved category %s", c.Name)
			}
		}
		if len(cats) != 2 {
			t.Errorf("expected 2 categories, got %d", len(cats))
		}
	})

	t.Run("invalid_type", func(t *testing.T) {
		_, err := svc.ListByTypeAndUser(ctx, user.ID, models.CategoryType("other"), true)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestListUserCategories(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db, nil)
	user := testutil.CreateTestUser(t, db)

	for _, name := range []string{"A", "B", "C"} {
		testutil.CreateTestCategory(t, db, user.ID, name, models.CategoryTypeExpense)
	}

	result, err := svc.ListUserCategories(ctx, user.ID, pagination.PageRequest{Page: 1, PageSize: 2})
	testutil.AssertNoError(t, err)

	if result.TotalItems != 3 {
		t.Errorf("expected 3 total items, got %d", result.TotalItems)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 items on the page, got %d", len(result.Data))
	}
	if result.TotalPages != 2 {
		t.Errorf("expected 2 pages, got %d", result.TotalPages)
	}
}
