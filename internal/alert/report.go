// Package alert renders matched rows into the report mailed to recipients.
package alert

import (
	"fmt"
	"strings"

	"github.com/ryan-gang/dbalert/internal/database"
)

// Delimiter separates rows in the report body
var Delimiter = strings.Repeat("-", 50)

// Body lists every row in query order under a header naming the table and
// the condition value.
func Body(table, conditionValue string, rows []database.AlertRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "检测到表 %s 中以下作业状态为 %s：\n\n", table, conditionValue)
	for _, row := range rows {
		fmt.Fprintf(&b, "作业名称: %s\n", row.JobName)
		fmt.Fprintf(&b, "作业状态: %s\n", row.Status)
		fmt.Fprintf(&b, "错误日志: %s\n", row.JobResultLog)
		b.WriteString(Delimiter)
		b.WriteString("\n")
	}
	return b.String()
}
