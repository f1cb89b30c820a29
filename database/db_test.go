/*
Copyright 2025 SafeSend Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	buyerAddr  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	sellerAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
	ownerAddr  = common.HexToAddress("0x3333333333333333333333333333333333333333")
	clientAddr = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

func newTestDatasource(t *testing.T) (Datasource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	return Datasource{Conn: db}, mock
}
