// recordjoin 命令行工具：合并记录、管理函数密钥、运行本地开发节点
package main

func main() {
	Execute()
}
