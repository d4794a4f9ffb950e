package rpcapi

import (
	"encoding/json"

	"google.golang.org/protobuf/types/known/timestamppb"

	pb "github.com/psychoney/quant-qmt-proxy/api/proto"
	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
)

func toProtoAccount(a domain.AccountInfo) *pb.AccountInfo {
	return &pb.AccountInfo{
		AccountId:        a.AccountID,
		AccountType:      string(a.AccountType),
		AccountName:      a.AccountName,
		Status:           a.Status,
		Balance:          a.Balance,
		AvailableBalance: a.AvailableBalance,
		FrozenBalance:    a.FrozenBalance,
		MarketValue:      a.MarketValue,
		TotalAsset:       a.TotalAsset,
	}
}

func toProtoAsset(a domain.AssetInfo) *pb.AssetInfo {
	return &pb.AssetInfo{
		TotalAsset:      a.TotalAsset,
		MarketValue:     a.MarketValue,
		Cash:            a.Cash,
		FrozenCash:      a.FrozenCash,
		AvailableCash:   a.AvailableCash,
		ProfitLoss:      a.ProfitLoss,
		ProfitLossRatio: a.ProfitLossRatio,
	}
}

func toProtoPositions(in []domain.PositionInfo) *pb.PositionList {
	out := make([]*pb.PositionInfo, len(in))
	for i, p := range in {
		out[i] = &pb.PositionInfo{
			StockCode:       p.StockCode,
			StockName:       p.StockName,
			Volume:          p.Volume,
			AvailableVolume: p.AvailableVolume,
			FrozenVolume:    p.FrozenVolume,
			CostPrice:       p.CostPrice,
			MarketPrice:     p.MarketPrice,
			MarketValue:     p.MarketValue,
			ProfitLoss:      p.ProfitLoss,
			ProfitLossRatio: p.ProfitLossRatio,
		}
	}
	return &pb.PositionList{Positions: out}
}

func toProtoOrder(o domain.OrderResponse) *pb.OrderResponse {
	return &pb.OrderResponse{
		OrderId:       o.OrderID,
		StockCode:     o.StockCode,
		Side:          string(o.Side),
		OrderType:     string(o.OrderType),
		Volume:        o.Volume,
		Price:         o.Price,
		Status:        string(o.Status),
		SubmittedTime: timestamppb.New(o.SubmittedTime),
		FilledVolume:  o.FilledVolume,
		FilledAmount:  o.FilledAmount,
		AveragePrice:  o.AveragePrice,
		Simulated:     o.Simulated,
	}
}

func toProtoOrders(in []domain.OrderResponse) *pb.OrderList {
	out := make([]*pb.OrderResponse, len(in))
	for i, o := range in {
		out[i] = toProtoOrder(o)
	}
	return &pb.OrderList{Orders: out}
}

func toProtoTrades(in []domain.TradeInfo) *pb.TradeList {
	out := make([]*pb.TradeInfo, len(in))
	for i, t := range in {
		out[i] = &pb.TradeInfo{
			TradeId:    t.TradeID,
			OrderId:    t.OrderID,
			StockCode:  t.StockCode,
			Side:       string(t.Side),
			Volume:     t.Volume,
			Price:      t.Price,
			Amount:     t.Amount,
			TradeTime:  timestamppb.New(t.TradeTime),
			Commission: t.Commission,
		}
	}
	return &pb.TradeList{Trades: out}
}

func toProtoRisk(r domain.RiskInfo) *pb.RiskInfo {
	return &pb.RiskInfo{
		PositionRatio: r.PositionRatio,
		CashRatio:     r.CashRatio,
		MaxDrawdown:   r.MaxDrawdown,
		Var95:         r.VaR95,
		Var99:         r.VaR99,
	}
}

func toProtoStrategies(in []domain.StrategyInfo) *pb.StrategyList {
	out := make([]*pb.StrategyInfo, len(in))
	for i, s := range in {
		out[i] = &pb.StrategyInfo{
			StrategyName:   s.StrategyName,
			StrategyType:   s.StrategyType,
			Status:         s.Status,
			CreatedTime:    timestamppb.New(s.CreatedTime),
			LastUpdateTime: timestamppb.New(s.LastUpdateTime),
			Parameters:     s.Parameters,
		}
	}
	return &pb.StrategyList{Strategies: out}
}

func toProtoAsyncOrder(r domain.AsyncOrderResponse) *pb.AsyncOrderResponse {
	return &pb.AsyncOrderResponse{
		Success:   r.Success,
		Message:   r.Message,
		Seq:       r.Seq,
		StockCode: r.StockCode,
		Side:      string(r.Side),
		Volume:    r.Volume,
		Price:     r.Price,
		Simulated: r.Simulated,
	}
}

func toProtoAsyncCancel(r domain.AsyncCancelResponse) *pb.AsyncCancelResponse {
	return &pb.AsyncCancelResponse{
		Success:   r.Success,
		Message:   r.Message,
		Seq:       r.Seq,
		OrderId:   r.OrderID,
		Simulated: r.Simulated,
	}
}

func toProtoSymbolRows(in []domain.SymbolRows) *pb.SymbolRowsList {
	out := make([]*pb.SymbolRows, len(in))
	for i, sr := range in {
		rows := make([]*pb.Row, len(sr.Rows))
		for j, r := range sr.Rows {
			rows[j] = &pb.Row{Symbol: r.Symbol, Timestamp: timestamppb.New(r.Timestamp), Fields: r.Fields}
		}
		out[i] = &pb.SymbolRows{Symbol: sr.Symbol, Rows: rows}
	}
	return &pb.SymbolRowsList{Symbols: out}
}

func toProtoSymbolTableRows(in []domain.SymbolTableRows) *pb.SymbolTableRowsList {
	out := make([]*pb.SymbolTableRows, len(in))
	for i, st := range in {
		tables := make(map[string]*pb.RowList, len(st.Tables))
		for name, rows := range st.Tables {
			pr := make([]*pb.Row, len(rows))
			for j, r := range rows {
				pr[j] = &pb.Row{Symbol: r.Symbol, Timestamp: timestamppb.New(r.Timestamp), Fields: r.Fields}
			}
			tables[name] = &pb.RowList{Rows: pr}
		}
		out[i] = &pb.SymbolTableRows{Symbol: st.Symbol, Tables: tables}
	}
	return &pb.SymbolTableRowsList{Symbols: out}
}

func toProtoSectors(in []domain.SectorInfo) *pb.SectorList {
	out := make([]*pb.SectorInfo, len(in))
	for i, s := range in {
		out[i] = &pb.SectorInfo{Name: s.Name, Members: s.Members}
	}
	return &pb.SectorList{Sectors: out}
}

func fromProtoCandleQuery(q *pb.CandleQuery) domain.CandleQuery {
	return domain.CandleQuery{
		Codes:           q.Codes,
		Period:          q.Period,
		Start:           q.Start,
		End:             q.End,
		Fields:          q.Fields,
		Adjust:          domain.AdjustMode(q.Adjust),
		Fill:            q.Fill,
		DisableDownload: q.DisableDownload,
	}
}

func fromProtoFinancialQuery(q *pb.FinancialQuery) domain.FinancialQuery {
	return domain.FinancialQuery{Codes: q.Codes, Tables: q.Tables, Start: q.Start, End: q.End}
}

func toProtoCallback(rec domain.CallbackRecord) *pb.CallbackRecord {
	payload, _ := json.Marshal(rec.Payload)
	return &pb.CallbackRecord{
		Seq:         rec.Seq,
		Kind:        string(rec.Kind),
		AccountId:   rec.AccountID,
		Time:        timestamppb.New(rec.Time),
		AsyncSeq:    rec.AsyncSeq,
		PayloadJson: string(payload),
	}
}
